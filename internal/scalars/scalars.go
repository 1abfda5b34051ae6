// Package scalars defines the custom GraphQL scalar types of the API.
package scalars

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// JSON carries the structured rich-text blog body verbatim as a string.
func JSON() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "JSON",
		Description: "Arbitrary JSON value serialized as a string.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case []byte:
				return string(v)
			case json.RawMessage:
				return string(v)
			case string:
				return v
			case nil:
				return nil
			default:
				serialized, err := json.Marshal(v)
				if err != nil {
					slog.Default().Warn("failed to serialize JSON scalar", slog.String("error", err.Error()))
					return nil
				}
				return string(serialized)
			}
		},
		ParseValue: func(value interface{}) interface{} {
			if s, ok := value.(string); ok {
				return s
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				return sv.Value
			}
			return nil
		},
	})
}

// DateTime serializes timestamps as RFC 3339 strings in UTC.
func DateTime() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "Timestamp serialized as an RFC 3339 string.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.UTC().Format(time.RFC3339)
			case *time.Time:
				if v == nil {
					return nil
				}
				return v.UTC().Format(time.RFC3339)
			default:
				return nil
			}
		},
		ParseValue: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v
			case string:
				if parsed, err := time.Parse(time.RFC3339, v); err == nil {
					return parsed
				}
				if parsed, err := time.Parse("2006-01-02", v); err == nil {
					return parsed
				}
				return nil
			default:
				return nil
			}
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				if parsed, err := time.Parse(time.RFC3339, sv.Value); err == nil {
					return parsed
				}
				if parsed, err := time.Parse("2006-01-02", sv.Value); err == nil {
					return parsed
				}
			}
			return nil
		},
	})
}

// Upload is the placeholder scalar for multipart file uploads. The HTTP
// middleware replaces mapped variables with opaque tokens; resolvers
// exchange the token for the drained file bytes.
func Upload() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Upload",
		Description: "File upload delivered via the multipart request convention.",
		Serialize: func(value interface{}) interface{} {
			return nil
		},
		ParseValue: func(value interface{}) interface{} {
			return value
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			return nil
		},
	})
}

// CoerceID accepts the usual GraphQL ID encodings and returns an int64
// primary key.
func CoerceID(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
