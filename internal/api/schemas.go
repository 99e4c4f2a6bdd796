package api

import "membership-signup/internal/common/validation"

var (
	fieldsSchema = validation.MustCompile("signup-fields", map[string]interface{}{
		"type":          "object",
		"minProperties": 1,
		"additionalProperties": map[string]interface{}{
			"type": []interface{}{"string", "boolean", "null"},
		},
	})

	birthDateSchema = validation.MustCompile("signup-birth-date", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"segment"},
		"properties": map[string]interface{}{
			"segment": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"month", "day", "year"},
			},
			"input": map[string]interface{}{"type": "string", "maxLength": 16},
			"key":   map[string]interface{}{"type": "string", "enum": []interface{}{"Backspace"}},
		},
		"oneOf": []interface{}{
			map[string]interface{}{"required": []interface{}{"input"}},
			map[string]interface{}{"required": []interface{}{"key"}},
		},
		"additionalProperties": false,
	})

	confirmSchema = validation.MustCompile("payment-confirm", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"paymentMethod"},
		"properties": map[string]interface{}{
			"paymentMethod": map[string]interface{}{"type": "string", "minLength": 1},
		},
	})

	paymentIntentSchema = validation.MustCompile("payment-intent", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"amount"},
		"properties": map[string]interface{}{
			"amount": map[string]interface{}{"type": "number"},
			"metadata": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
		},
	})

	loginSchema = validation.MustCompile("admin-login", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"email", "password"},
		"properties": map[string]interface{}{
			"email":    map[string]interface{}{"type": "string", "format": "email"},
			"password": map[string]interface{}{"type": "string", "minLength": 1},
		},
	})
)

type birthDateRequest struct {
	Segment string  `json:"segment"`
	Input   *string `json:"input"`
	Key     string  `json:"key"`
}

type confirmRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type paymentIntentRequest struct {
	Amount   float64           `json:"amount"`
	Metadata map[string]string `json:"metadata"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
