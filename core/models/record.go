package models

import (
	"fmt"
	"time"

	"github.com/nyaruka/gocommon/uuids"
)

// RecordKind is the type of a record stored in DynamoDB
type RecordKind string

const (
	RecordKindSubscription RecordKind = "subscribe"
	RecordKindContact      RecordKind = "contact"
)

// DynamoKey is the key type for all records, consisting of a partition key (pk) and a sort key (sk)
type DynamoKey struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
}

func (k DynamoKey) String() string {
	return fmt.Sprintf("%s[%s]", k.PK, k.SK)
}

// Record is a single item in our records table. Subscriptions are keyed by email so that repeat
// subscribes overwrite the same item, contact messages always get a fresh key.
type Record struct {
	DynamoKey

	Kind           RecordKind `dynamodbav:"type"`
	Name           string     `dynamodbav:"name,omitempty"`
	Email          string     `dynamodbav:"email,omitempty"`
	Message        string     `dynamodbav:"message,omitempty"`
	IdempotencyKey string     `dynamodbav:"idem,omitempty"`
	CreatedOn      time.Time  `dynamodbav:"created_at,unixtime"`
}

// TenantKey returns the partition key for the passed in tenant name
func TenantKey(tenant string) string {
	return fmt.Sprintf("tenant#%s", tenant)
}

// SubscriptionKey returns the sort key for a subscription to the passed in email. Because the key
// is derived from the email, writing a second subscription for the same address is an overwrite.
func SubscriptionKey(email string) string {
	return fmt.Sprintf("sub#%s", email)
}

// NewSubscription creates a new subscription record for the passed in email
func NewSubscription(tenant, email, idempotencyKey string) *Record {
	return &Record{
		DynamoKey:      DynamoKey{PK: TenantKey(tenant), SK: SubscriptionKey(email)},
		Kind:           RecordKindSubscription,
		Email:          email,
		IdempotencyKey: idempotencyKey,
		CreatedOn:      time.Now(),
	}
}

// NewContactMessage creates a new contact message record, always with a fresh key
func NewContactMessage(tenant, name, email, message string) *Record {
	return &Record{
		DynamoKey: DynamoKey{PK: TenantKey(tenant), SK: fmt.Sprintf("msg#%s", uuids.NewV4())},
		Kind:      RecordKindContact,
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedOn: time.Now(),
	}
}
