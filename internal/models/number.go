package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Number is a numeric table attribute. Devices have written readings both as
// DynamoDB numbers and as numeric strings, so both decode.
type Number float64

// MarshalDynamoDBAttributeValue always writes a DynamoDB number.
func (n Number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(float64(n), 'f', -1, 64)}, nil
}

// UnmarshalDynamoDBAttributeValue accepts N and S attributes holding a number.
func (n *Number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = strings.TrimSpace(v.Value)
	case *types.AttributeValueMemberNULL:
		return nil
	default:
		return fmt.Errorf("numeric attribute has unsupported type %T", av)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse numeric attribute %q: %w", raw, err)
	}
	*n = Number(f)
	return nil
}
