package cmd

import (
	"encoding/json"
	"strings"

	"github.com/outhook-io/outhook/dispatcher"
	"github.com/outhook-io/outhook/eventbus"
	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/log"
	"github.com/outhook-io/outhook/registry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newCallCmd() *cobra.Command {
	var (
		url     string
		method  string
		headers []string
		payload string
		timeout int
		retries int
	)

	call := &cobra.Command{
		Use:   "call",
		Short: "Dispatch a one-off webhook",
		Long:  `Build a webhook from flags, dispatch it, and print the captured response as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initConfig(configurationFile)
			if err != nil {
				return err
			}
			logger, err := log.NewZapLogger(&cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			webhook := &model.Webhook{
				ID:             "cli",
				URL:            url,
				Method:         method,
				TimeoutSeconds: timeout,
				RetryAttempts:  &retries,
			}
			if len(headers) > 0 {
				webhook.Headers = make(model.Headers, len(headers))
				for _, header := range headers {
					name, value, ok := strings.Cut(header, ":")
					if !ok {
						return errors.Errorf("invalid header %q, expected name:value", header)
					}
					webhook.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
				}
			}
			if payload != "" {
				if gjson.Valid(payload) {
					var parsed any
					if err := json.Unmarshal([]byte(payload), &parsed); err == nil {
						webhook.Payload = parsed
					}
				}
				if webhook.Payload == nil {
					webhook.Payload = payload
				}
			}

			reg := registry.NewMemoryRegistry()
			if err := reg.Set(webhook); err != nil {
				return err
			}

			bus := eventbus.New()
			d := dispatcher.NewDispatcher(dispatcher.Options{
				Registry: reg,
				Bus:      bus,
				Config:   &cfg.Dispatcher,
				Logger:   logger.Named("dispatcher"),
			})

			result, err := d.Dispatch(cmd.Context(), &model.CallRequest{WebhookID: "cli"})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}

	call.Flags().StringVarP(&url, "url", "u", "", "Target URL (required)")
	call.Flags().StringVarP(&method, "method", "X", "POST", "HTTP method")
	call.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header as name:value, repeatable")
	call.Flags().StringVarP(&payload, "payload", "d", "", "Request payload, JSON or raw string")
	call.Flags().IntVarP(&timeout, "timeout", "t", 10, "Per-attempt timeout in seconds")
	call.Flags().IntVarP(&retries, "retries", "r", 3, "Retry attempts after the first try")
	_ = call.MarkFlagRequired("url")

	return call
}
