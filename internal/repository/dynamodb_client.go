package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"civic-chat/internal/domain"
)

const (
	pkPrefixUser = "USER#"
	skPrefixMsg  = "MSG#"
	ttlDuration  = 30 * 24 * time.Hour // 30-day TTL

	// sortKeyTime is fixed width so sort keys compare lexically in time order.
	sortKeyTime = "2006-01-02T15:04:05.000000000Z"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoClient.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoClient stores conversation messages in a single DynamoDB table,
// partitioned by owner and sorted by creation time.
type DynamoClient struct {
	api       dynamodbAPI
	tableName string
}

// NewDynamo creates a DynamoDB-backed message store.
func NewDynamo(api dynamodbAPI, tableName string) (*DynamoClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoClient{api: api, tableName: tableName}, nil
}

func ownerPK(ownerID string) string {
	return pkPrefixUser + ownerID
}

// msgSK orders by timestamp; the id suffix keeps two writes in the same instant distinct.
func msgSK(ts time.Time, id string) string {
	return skPrefixMsg + ts.UTC().Format(sortKeyTime) + "#" + id
}

func ttlValue(from time.Time) int64 {
	return from.Add(ttlDuration).Unix()
}

// RecentMessages returns up to limit most recent messages for ownerID, oldest first.
func (c *DynamoClient) RecentMessages(ctx context.Context, ownerID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: ownerPK(ownerID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		// Read newest first so LIMIT favors the most recent context.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: RecentMessages query: %w", err)
	}

	msgs := make([]domain.Message, 0, len(out.Items))
	for _, item := range out.Items {
		msg, err := itemToMessage(item)
		if err != nil {
			return nil, fmt.Errorf("repository: RecentMessages unmarshal: %w", err)
		}
		msgs = append(msgs, msg)
	}
	reverse(msgs)
	return msgs, nil
}

// AppendMessage inserts msg as a new item.
func (c *DynamoClient) AppendMessage(ctx context.Context, msg domain.Message) error {
	if err := validateMessage(msg); err != nil {
		return fmt.Errorf("repository: AppendMessage: %w", err)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                messageItem(msg, newID()),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: AppendMessage: %w", err)
	}
	return nil
}

func itemToMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	owner, err := strAttr(item, "ownerId")
	if err != nil {
		return domain.Message{}, err
	}
	role, err := strAttr(item, "role")
	if err != nil {
		return domain.Message{}, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return domain.Message{}, err
	}
	created, err := strAttr(item, "createdAt")
	if err != nil {
		return domain.Message{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.Message{}, fmt.Errorf("repository: parse attribute %q: %w", "createdAt", err)
	}

	return domain.Message{
		OwnerID:   owner,
		Role:      domain.Role(role),
		Content:   content,
		CreatedAt: ts,
	}, nil
}

func messageItem(msg domain.Message, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: ownerPK(msg.OwnerID)},
		"SK":        &types.AttributeValueMemberS{Value: msgSK(msg.CreatedAt, id)},
		"ownerId":   &types.AttributeValueMemberS{Value: msg.OwnerID},
		"role":      &types.AttributeValueMemberS{Value: string(msg.Role)},
		"content":   &types.AttributeValueMemberS{Value: msg.Content},
		"createdAt": &types.AttributeValueMemberS{Value: msg.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue(msg.CreatedAt))},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

var newID = func() string {
	return uuid.NewString()
}
