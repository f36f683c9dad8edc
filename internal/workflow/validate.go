package workflow

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyNodeID     = errors.New("node id is empty")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrInvalidPayload  = errors.New("invalid node payload")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a flat sequence and returns every problem found, joined.
func Validate(nodes []Node) error {
	var errs []error
	seen := make(map[string]struct{}, len(nodes))

	for i, n := range nodes {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node #%d: %w", i, ErrEmptyNodeID))
		} else if _, dup := seen[n.ID]; dup {
			errs = append(errs, fmt.Errorf("node %q: %w", n.ID, ErrDuplicateNodeID))
		} else {
			seen[n.ID] = struct{}{}
		}

		if err := validateNode(n); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", n.ID, err))
		}
	}
	return errors.Join(errs...)
}

func validateNode(n Node) error {
	if n.Payload == nil {
		return ErrUnknownNodeType
	}
	if err := validate.Struct(n.Payload); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	switch p := n.Payload.(type) {
	case Delay:
		if p.Mode == DelayRandom && p.MaxMs < p.MinMs {
			return fmt.Errorf("%w: delayMaxMs %d is below delayMinMs %d", ErrInvalidPayload, p.MaxMs, p.MinMs)
		}
	case Condition:
		// regex keywords are one pattern; commas may be part of it
		if p.MatchMode == MatchRegex {
			if _, err := regexp.Compile(p.Keywords); err != nil {
				return fmt.Errorf("%w: pattern %q: %w", ErrInvalidPayload, p.Keywords, err)
			}
		}
	}
	return nil
}
