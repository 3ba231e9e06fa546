package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/storline-ai/storline/pkg/voice"
	"github.com/storline-ai/storline/pkg/webhook"
)

// Spoken fallbacks when the backend cannot be reached. The model reads
// these to the caller instead of surfacing an internal error.
const (
	availabilityFailureMessage = "I couldn't check availability right now. I'll connect you to a representative who can assist further."
	bookingFailureMessage      = "I'm sorry, I couldn't complete the booking right now. I'll connect you to a representative who can assist further."
)

// ToolDeps carries what the tool handlers need: the webhook client, the
// call's session, and the call-scoped context that bounds in-flight
// requests at hangup.
type ToolDeps struct {
	Webhook *webhook.Client
	Session *Session
	Ctx     context.Context
}

// Tools returns the two function tools registered with the voice pipeline.
// All business logic (inventory, pricing, bookings) lives behind the
// webhook; these handlers shape arguments, relay, and phrase failures.
func Tools(deps ToolDeps) []voice.Tool {
	return []voice.Tool{
		checkAvailabilityTool(deps),
		bookUnitTool(deps),
	}
}

func checkAvailabilityTool(deps ToolDeps) voice.Tool {
	return voice.Tool{
		Name:        "check_availability",
		Description: "Called when the agent needs to check unit availability based on location and size given by the user.",
		Parameters: map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The location to check availability for. Example values: Downtown, Uptown, Riverside",
			},
			"size": map[string]any{
				"type":        "integer",
				"description": "The size of the unit in square meters. Example values: 5, 10, 20",
			},
		},
		Required: []string{"location", "size"},
		Handler: func(args map[string]any) (string, error) {
			location, err := stringArg(args, "location")
			if err != nil {
				toolInvocations.WithLabelValues("check_availability", outcomeRejected).Inc()
				return "", err
			}
			size, err := intArg(args, "size")
			if err != nil {
				toolInvocations.WithLabelValues("check_availability", outcomeRejected).Inc()
				return "", err
			}

			ctx, cancel := context.WithTimeout(deps.Ctx, webhook.DefaultTimeout)
			defer cancel()

			res := deps.Webhook.Post(ctx, "check_availability", map[string]any{
				"location": strings.ToLower(location),
				"size":     size,
			})
			if !res.OK {
				webhookFailures.Inc()
				toolInvocations.WithLabelValues("check_availability", outcomeFailed).Inc()
				return availabilityFailureMessage, nil
			}

			toolInvocations.WithLabelValues("check_availability", outcomeOK).Inc()
			return res.Body, nil
		},
	}
}

func bookUnitTool(deps ToolDeps) voice.Tool {
	return voice.Tool{
		Name:        "book_unit",
		Description: "Called when the agent needs to book a unit for the customer.",
		Parameters: map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "The customer's full name.",
			},
			"email": map[string]any{
				"type":        "string",
				"description": "The customer's email address, if they provided one.",
			},
		},
		Required: []string{"name"},
		Handler: func(args map[string]any) (string, error) {
			name, err := stringArg(args, "name")
			if err != nil {
				toolInvocations.WithLabelValues("book_unit", outcomeRejected).Inc()
				return "", err
			}
			email, _ := args["email"].(string)

			ctx, cancel := context.WithTimeout(deps.Ctx, webhook.DefaultTimeout)
			defer cancel()

			// The phone number is whatever call metadata provided at
			// bootstrap, attached verbatim even when empty.
			res := deps.Webhook.Post(ctx, "book_unit", map[string]any{
				"name":  name,
				"phone": deps.Session.PhoneNumber(),
				"email": email,
			})
			if !res.OK {
				webhookFailures.Inc()
				toolInvocations.WithLabelValues("book_unit", outcomeFailed).Inc()
				return bookingFailureMessage, nil
			}

			deps.Session.SetCustomerName(name)
			if email != "" {
				deps.Session.SetEmail(email)
			}

			toolInvocations.WithLabelValues("book_unit", outcomeOK).Inc()
			return res.Body, nil
		},
	}
}

// stringArg extracts a required non-empty string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("argument %q must not be empty", key)
	}
	return s, nil
}

// intArg extracts a required integer argument. JSON numbers arrive as
// float64; a fractional value is rejected rather than truncated.
func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q must be a whole number", key)
		}
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number", key)
	}
}
