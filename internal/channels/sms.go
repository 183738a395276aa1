package channels

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"garden-alert-service/internal/models"
)

// smsRetryDelay is the fixed delay between SMS submit attempts.
const smsRetryDelay = 5 * time.Second

// smsMaxAttempts is the total number of submit attempts: the first try
// plus 2 more retries.
const smsMaxAttempts = 3

// gatewaySender submits one SMS and reports whether the gateway accepted
// it. Swapped out in tests; backed by Twilio's REST API in production.
type gatewaySender interface {
	Submit(ctx context.Context, body, from, to string) error
}

// twilioSender posts to Twilio's Messages resource using HTTP Basic Auth.
type twilioSender struct {
	accountSID string
	authToken  string
	httpClient *http.Client
}

func (t *twilioSender) Submit(ctx context.Context, body, from, to string) error {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", t.accountSID)
	form := url.Values{}
	form.Set("Body", body)
	form.Set("From", from)
	form.Set("To", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// SMSChannel formats and submits alert SMS messages through Twilio.
// Disabled entirely when any of the three account credentials is missing.
type SMSChannel struct {
	fromNumber string
	sender     gatewaySender
	logger     *zap.Logger
	sleep      func(time.Duration)
	enabled    bool
}

// NewSMSChannel builds an SMSChannel. It is disabled if accountSID,
// authToken, or fromNumber is empty.
func NewSMSChannel(accountSID, authToken, fromNumber string, logger *zap.Logger) *SMSChannel {
	enabled := accountSID != "" && authToken != "" && fromNumber != ""
	var sender gatewaySender
	if enabled {
		sender = &twilioSender{accountSID: accountSID, authToken: authToken, httpClient: &http.Client{Timeout: 10 * time.Second}}
	}
	return &SMSChannel{
		fromNumber: fromNumber,
		sender:     sender,
		logger:     logger,
		sleep:      time.Sleep,
		enabled:    enabled,
	}
}

// IsEnabled reports whether the channel has usable Twilio credentials.
func (c *SMSChannel) IsEnabled() bool {
	return c.enabled
}

// SendAlert formats alert as an SMS body and submits it to user's phone
// number, retrying up to 2 more times with a fixed 5s delay. Returns true
// on the first accepted submission, false if disabled, the user has no
// phone on file, or every attempt failed. Never panics or returns an error
// to the caller.
func (c *SMSChannel) SendAlert(ctx context.Context, alert models.Alert, user models.User) bool {
	if !c.enabled {
		return false
	}
	if !user.HasPhone() {
		return false
	}

	body := formatMessage(alert)

	var lastErr error
	for attempt := 0; attempt < smsMaxAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(smsRetryDelay)
		}
		err := c.sender.Submit(ctx, body, c.fromNumber, *user.PhoneNumber)
		if err == nil {
			return true
		}
		lastErr = err
	}

	if c.logger != nil {
		c.logger.Warn("sms submission exhausted retries",
			zap.String("alertId", alert.AlertID), zap.Error(lastErr))
	}
	return false
}

func formatMessage(alert models.Alert) string {
	names := alert.AffectedPlantNames
	if len(names) == 0 {
		names = alert.AffectedPlantTypes
	}

	return fmt.Sprintf(
		"%s\n%s\n%s: %.1f (threshold %.1f)\nAffected: %s",
		alert.GardenName,
		alertTypeLabel(alert.AlertType),
		metricLabel(alert.Metric),
		alert.CurrentValue,
		alert.Threshold,
		strings.Join(names, ", "),
	)
}

func alertTypeLabel(t models.AlertType) string {
	switch t {
	case models.HighTemperature:
		return "High temperature warning"
	case models.LowTemperature:
		return "Low temperature warning"
	case models.HeavyRain:
		return "Heavy rain warning"
	case models.StrongWind:
		return "Strong wind warning"
	default:
		return string(t)
	}
}

func metricLabel(m models.Metric) string {
	switch m {
	case models.MetricTemperature:
		return "Temperature (°C)"
	case models.MetricPrecipitation:
		return "Precipitation (mm/h)"
	case models.MetricWindSpeed:
		return "Wind speed (km/h)"
	default:
		return string(m)
	}
}
