package posts

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"chain-calculator/internal/db"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NumberOrString holds a numeric field that clients may send either as a JSON
// number or as the raw text of an input field. Parsing is left to the engine.
type NumberOrString string

func (v *NumberOrString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = NumberOrString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("value must be a number or a numeric string")
	}
	*v = NumberOrString(n.String())
	return nil
}

func (v NumberOrString) String() string {
	return string(v)
}

// CreateRootRequest is the body of POST /post.
type CreateRootRequest struct {
	Value NumberOrString `json:"value" validate:"required"`
}

// ReplyRequest is the body of POST /post/reply.
type ReplyRequest struct {
	ParentID  int64          `json:"parentId" validate:"required,gt=0"`
	Operation string         `json:"operation" validate:"required"`
	Value     NumberOrString `json:"value" validate:"required"`
}

// Validate reports a missing value.
func (r *CreateRootRequest) Validate() error {
	return validate.Struct(r)
}

// Validate reports missing fields.
func (r *ReplyRequest) Validate() error {
	return validate.Struct(r)
}

// ListResponse wraps GET /post.
type ListResponse struct {
	Data []*db.Node `json:"data"`
}

// DescribeValidation turns the first failed rule into a client message.
func DescribeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "ParentID":
			return "parentId must be a positive integer"
		case "Operation":
			return "operation is required"
		case "Value":
			return "value is required"
		}
	}
	return "Invalid request body"
}
