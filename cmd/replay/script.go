package main

import (
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Action string

const (
	ActionSubmit Action = "submit"
	ActionCancel Action = "cancel"
)

// Step is one scripted order action, run once the feed clock reaches At.
type Step struct {
	At            time.Time         `yaml:"at" validate:"required"`
	Action        Action            `yaml:"action" validate:"required,oneof=submit cancel"`
	ClientOrderID string            `yaml:"client_order_id"`
	Symbol        string            `yaml:"symbol"`
	Side          types.Side        `yaml:"side"`
	Type          types.OrderType   `yaml:"type"`
	TimeInForce   types.TimeInForce `yaml:"time_in_force"`
	Quantity      string            `yaml:"quantity"`
	// Price is required for limit orders only.
	Price string `yaml:"price"`
}

type Script struct {
	Steps []Step `yaml:"orders" validate:"dive"`
}

// LoadScript reads an order script and sorts its steps by time. Steps with
// the same time keep their file order.
func LoadScript(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read order script %s", path)
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse order script", err)
	}

	validate := validator.New()
	if err := validate.Struct(&script); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid order script", err)
	}

	for i, step := range script.Steps {
		switch step.Action {
		case ActionSubmit:
			if _, err := step.Request(); err != nil {
				return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "order script step %d", i+1)
			}
		case ActionCancel:
			if step.ClientOrderID == "" {
				return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "order script step %d: cancel needs client_order_id", i+1)
			}
		}
	}

	sort.SliceStable(script.Steps, func(i, j int) bool {
		return script.Steps[i].At.Before(script.Steps[j].At)
	})

	return script.Steps, nil
}

// Request converts a submit step into a validated order request.
func (s Step) Request() (types.OrderRequest, error) {
	quantity, err := decimal.NewFromString(s.Quantity)
	if err != nil {
		return types.OrderRequest{}, errors.Wrapf(errors.ErrCodeInvalidOrder, err, "invalid quantity %q", s.Quantity)
	}

	req := types.OrderRequest{
		ClientOrderID: s.ClientOrderID,
		Symbol:        s.Symbol,
		Side:          s.Side,
		Type:          s.Type,
		TimeInForce:   s.TimeInForce,
		Quantity:      quantity,
	}

	if s.Price != "" {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return types.OrderRequest{}, errors.Wrapf(errors.ErrCodeInvalidOrder, err, "invalid price %q", s.Price)
		}

		req.Price = optional.Some(price)
	}

	if err := req.Validate(); err != nil {
		return types.OrderRequest{}, err
	}

	return req, nil
}
