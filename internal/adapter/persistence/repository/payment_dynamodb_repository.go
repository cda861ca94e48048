package repository

import (
	"context"
	"sort"

	"hospital_billing/internal/domain/entities"
	"hospital_billing/internal/infrastructure/database"
	"hospital_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type paymentItem struct {
	ID                string                 `dynamodbav:"id"`
	InvoiceID         string                 `dynamodbav:"invoice_id"`
	Amount            string                 `dynamodbav:"amount"`
	Method            string                 `dynamodbav:"method"`
	Date              string                 `dynamodbav:"date"`
	ProviderPaymentID string                 `dynamodbav:"provider_payment_id,omitempty"`
	ProviderStatus    string                 `dynamodbav:"provider_status,omitempty"`
	Payload           map[string]interface{} `dynamodbav:"payload,omitempty"`
	PayloadRaw        string                 `dynamodbav:"payload_raw,omitempty"`
}

// PaymentDynamoRepository reads Payment entities from DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: invoice_id-index (PK: invoice_id)

type PaymentDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb DynamoAPI, tableName string) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            keyByID(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it)
}

// ListByInvoiceID returns the payments of an invoice, oldest first.
func (r *PaymentDynamoRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Payment, error) {
	var (
		items    []entities.Payment
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(database.PaymentsInvoiceIDIndex),
			KeyConditionExpression: aws.String("invoice_id = :iid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":iid": &types.AttributeValueMemberS{Value: invoiceID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it paymentItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			p, err := fromPaymentItem(it)
			if err != nil {
				return nil, err
			}
			items = append(items, p)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	if items == nil {
		items = []entities.Payment{}
	}
	return items, nil
}

// putPayment builds the conditional put used inside invoice transactions.
func putPayment(table string, p entities.Payment) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(table),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{
				"#id": "id",
			},
		},
	}, nil
}

func toPaymentItem(p entities.Payment) paymentItem {
	return paymentItem{
		ID:                p.ID,
		InvoiceID:         p.InvoiceID,
		Amount:            formatMoney(p.Amount),
		Method:            string(p.Method),
		Date:              formatTime(p.Date),
		ProviderPaymentID: p.ProviderPaymentID,
		ProviderStatus:    p.ProviderStatus,
		Payload:           p.Payload,
		PayloadRaw:        string(p.PayloadRaw),
	}
}

func fromPaymentItem(it paymentItem) (entities.Payment, error) {
	amount, err := parseDecimal("amount", it.Amount)
	if err != nil {
		return entities.Payment{}, err
	}
	p := entities.Payment{
		ID:                it.ID,
		InvoiceID:         it.InvoiceID,
		Amount:            amount,
		Method:            entities.PaymentMethod(it.Method),
		Date:              parseTime(it.Date),
		ProviderPaymentID: it.ProviderPaymentID,
		ProviderStatus:    it.ProviderStatus,
		Payload:           it.Payload,
	}
	if it.PayloadRaw != "" {
		p.PayloadRaw = []byte(it.PayloadRaw)
	}
	return p, nil
}
