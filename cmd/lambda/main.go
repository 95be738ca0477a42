// leadchat - AWS Lambda handler
// Receives {"message": "..."} via API Gateway, forwards it to the lead search webhook
// and answers with the shaped rows as JSON, or as CSV when the client accepts text/csv.
//
// Environment variables:
//   LEADCHAT_CONFIG_JSON   - Full config JSON (alternative to config file)
//   LEADCHAT_CONFIG_PATH   - Config file path (default: config.json)
//   LEADCHAT_*             - Per-field overrides, see pkg/config

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/leadcatalyst/leadchat/pkg/config"
	"github.com/leadcatalyst/leadchat/pkg/controller"
	"github.com/leadcatalyst/leadchat/pkg/csvexport"
	"github.com/leadcatalyst/leadchat/pkg/logger"
	"github.com/leadcatalyst/leadchat/pkg/shaper"
	"github.com/leadcatalyst/leadchat/pkg/table"
	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

var (
	sender   webhook.Sender
	cfg      *config.Config
	initOnce sync.Once
	initErr  error
)

func initialize() error {
	initOnce.Do(func() {
		initErr = doInit()
	})
	return initErr
}

func doInit() error {
	var err error
	configPath := os.Getenv("LEADCHAT_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CloudWatch wants plain JSON lines
	logger.SetOutput(os.Stdout, false)
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	sender = webhook.NewSenderFromConfig(cfg.Webhook)

	logger.InfoCF("lambda", "Lambda initialized", map[string]interface{}{
		"webhook": cfg.Webhook.URL,
		"timeout": cfg.Webhook.Timeout.Duration.String(),
	})
	return nil
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := initialize(); err != nil {
		logger.ErrorCF("lambda", "Init error", map[string]interface{}{"error": err.Error()})
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	return handle(ctx, request, sender, cfg)
}

func handle(ctx context.Context, request events.APIGatewayProxyRequest, s webhook.Sender, c *config.Config) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod != "" && request.HTTPMethod != http.MethodPost {
		return errorResponse(http.StatusMethodNotAllowed, "method not allowed"), nil
	}

	body := request.Body
	if !gjson.Valid(body) {
		return errorResponse(http.StatusBadRequest, "body must be JSON"), nil
	}
	text := strings.TrimSpace(gjson.Get(body, "message").String())
	if text == "" {
		return errorResponse(http.StatusBadRequest, controller.ErrEmptyMessage.Error()), nil
	}

	resp, err := s.Send(ctx, text)
	if err != nil {
		logger.ErrorCF("lambda", "Webhook error", map[string]interface{}{"error": err.Error()})
		return errorResponse(http.StatusBadGateway, controller.DescribeError(err, c.Webhook.Timeout.Duration)), nil
	}

	res := shaper.Shape(resp.Value, text)
	logger.InfoCF("lambda", "Response shaped", map[string]interface{}{
		"kind": res.Kind.String(),
		"rows": len(res.Rows),
	})

	if acceptsCSV(request.Headers) {
		return csvResponse(res.Rows, c.ExportFilename())
	}
	return jsonResponse(res)
}

func acceptsCSV(headers map[string]string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, "accept") && strings.Contains(strings.ToLower(v), "text/csv") {
			return true
		}
	}
	return false
}

func csvResponse(rows []table.Row, filename string) (events.APIGatewayProxyResponse, error) {
	text, err := csvexport.Encode(rows)
	if errors.Is(err, csvexport.ErrNoRows) {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}, nil
	}
	if err != nil {
		logger.ErrorCF("lambda", "Error exporting to CSV", map[string]interface{}{"error": err.Error()})
		return errorResponse(http.StatusInternalServerError, "export failed"), nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":        csvexport.ContentType,
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
		},
		Body: text,
	}, nil
}

func jsonResponse(res shaper.Result) (events.APIGatewayProxyResponse, error) {
	rows := "[]"
	for _, r := range res.Rows {
		raw, err := r.MarshalJSON()
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		if rows, err = sjson.SetRaw(rows, "-1", string(raw)); err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
	}

	out := "{}"
	var err error
	for _, f := range []struct {
		path  string
		value interface{}
	}{
		{"status", res.Status},
		{"detail", res.Detail},
		{"kind", res.Kind.String()},
		{"columns", columnsOrEmpty(res.Rows)},
	} {
		if out, err = sjson.Set(out, f.path, f.value); err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
	}
	if out, err = sjson.SetRaw(out, "rows", rows); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       out,
	}, nil
}

func columnsOrEmpty(rows []table.Row) []string {
	cols := table.Columns(rows)
	if cols == nil {
		return []string{}
	}
	return cols
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	body, _ := sjson.Set("{}", "error", message)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func main() {
	lambda.Start(handler)
}
