package repository

import (
	"context"
	"sort"
	"strconv"

	"hospital_billing/internal/domain/entities"
	"hospital_billing/internal/infrastructure/database"
	"hospital_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

type lineItemItem struct {
	Description string `dynamodbav:"description"`
	Category    string `dynamodbav:"category"`
	Quantity    int64  `dynamodbav:"quantity"`
	UnitPrice   string `dynamodbav:"unit_price"`
	TaxRate     string `dynamodbav:"tax_rate"`
	Amount      string `dynamodbav:"amount"`
	LineTax     string `dynamodbav:"line_tax"`
}

type invoiceItem struct {
	ID            string         `dynamodbav:"id"`
	PatientID     string         `dynamodbav:"patient_id"`
	Items         []lineItemItem `dynamodbav:"items"`
	Discount      string         `dynamodbav:"discount"`
	Subtotal      string         `dynamodbav:"subtotal"`
	TotalTax      string         `dynamodbav:"total_tax"`
	TotalAmount   string         `dynamodbav:"total_amount"`
	AmountPaid    string         `dynamodbav:"amount_paid"`
	BalanceDue    string         `dynamodbav:"balance_due"`
	PaymentStatus string         `dynamodbav:"payment_status"`
	PaymentMethod string         `dynamodbav:"payment_method,omitempty"`
	Version       int64          `dynamodbav:"version"`
	CreatedAt     string         `dynamodbav:"created_at"`
	UpdatedAt     string         `dynamodbav:"updated_at"`
}

// InvoiceDynamoRepository persists Invoice entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: patient_id-index (PK: patient_id)
//
// Payment writes are transactions spanning the invoices and payments tables, so the
// payments table name is needed here too.

type InvoiceDynamoRepository struct {
	ddb           DynamoAPI
	tableName     string
	paymentsTable string
}

var _ interfaces.IInvoiceRepository = (*InvoiceDynamoRepository)(nil)

func NewInvoiceDynamoRepository(ddb DynamoAPI, tableName, paymentsTable string) *InvoiceDynamoRepository {
	return &InvoiceDynamoRepository{ddb: ddb, tableName: tableName, paymentsTable: paymentsTable}
}

func (r *InvoiceDynamoRepository) Create(ctx context.Context, inv entities.Invoice, initial *entities.Payment) (entities.Invoice, error) {
	av, err := attributevalue.MarshalMap(toInvoiceItem(inv))
	if err != nil {
		return entities.Invoice{}, err
	}

	if initial == nil {
		_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{
				"#id": "id",
			},
		})
		if err != nil {
			return entities.Invoice{}, err
		}
		return inv, nil
	}

	paymentPut, err := putPayment(r.paymentsTable, *initial)
	if err != nil {
		return entities.Invoice{}, err
	}
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(#id)"),
					ExpressionAttributeNames: map[string]string{
						"#id": "id",
					},
				},
			},
			paymentPut,
		},
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            keyByID(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if len(out.Item) == 0 {
		return entities.Invoice{}, nil
	}

	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Invoice{}, err
	}
	return fromInvoiceItem(it)
}

// ListByPatientID returns the patient's invoices, newest first.
func (r *InvoiceDynamoRepository) ListByPatientID(ctx context.Context, patientID string) ([]entities.Invoice, error) {
	var (
		items    []entities.Invoice
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(database.InvoicesPatientIDIndex),
			KeyConditionExpression: aws.String("patient_id = :pid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pid": &types.AttributeValueMemberS{Value: patientID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it invoiceItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			inv, err := fromInvoiceItem(it)
			if err != nil {
				return nil, err
			}
			items = append(items, inv)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if items == nil {
		items = []entities.Invoice{}
	}
	return items, nil
}

// UpdatePayment writes the settled fields of inv and the payment record in one
// transaction. The write only succeeds if the stored version still equals
// expectedVersion; otherwise interfaces.ErrVersionConflict is returned.
func (r *InvoiceDynamoRepository) UpdatePayment(ctx context.Context, inv entities.Invoice, expectedVersion int64, p entities.Payment) (entities.Invoice, error) {
	next := inv
	next.Version = expectedVersion + 1

	paymentPut, err := putPayment(r.paymentsTable, p)
	if err != nil {
		return entities.Invoice{}, err
	}

	names := map[string]string{
		"#id":             "id",
		"#version":        "version",
		"#amount_paid":    "amount_paid",
		"#balance_due":    "balance_due",
		"#payment_status": "payment_status",
		"#payment_method": "payment_method",
		"#updated_at":     "updated_at",
	}
	values := map[string]types.AttributeValue{
		":expected":       &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		":version":        &types.AttributeValueMemberN{Value: strconv.FormatInt(next.Version, 10)},
		":amount_paid":    &types.AttributeValueMemberS{Value: formatMoney(next.AmountPaid)},
		":balance_due":    &types.AttributeValueMemberS{Value: formatMoney(next.BalanceDue)},
		":payment_status": &types.AttributeValueMemberS{Value: string(next.PaymentStatus)},
		":payment_method": &types.AttributeValueMemberS{Value: string(next.PaymentMethod)},
		":updated_at":     &types.AttributeValueMemberS{Value: formatTime(next.UpdatedAt)},
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                 aws.String(r.tableName),
					Key:                       keyByID(inv.ID),
					ConditionExpression:       aws.String("attribute_exists(#id) AND #version = :expected"),
					UpdateExpression:          aws.String("SET #amount_paid = :amount_paid, #balance_due = :balance_due, #payment_status = :payment_status, #payment_method = :payment_method, #version = :version, #updated_at = :updated_at"),
					ExpressionAttributeNames:  names,
					ExpressionAttributeValues: values,
				},
			},
			paymentPut,
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return entities.Invoice{}, interfaces.ErrVersionConflict
		}
		return entities.Invoice{}, err
	}
	return next, nil
}

func toInvoiceItem(inv entities.Invoice) invoiceItem {
	lines := make([]lineItemItem, len(inv.Items))
	for i, it := range inv.Items {
		lines[i] = lineItemItem{
			Description: it.Description,
			Category:    string(it.Category),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.String(),
			TaxRate:     it.TaxRate.String(),
			Amount:      formatMoney(it.Amount),
			LineTax:     formatMoney(it.LineTax),
		}
	}
	return invoiceItem{
		ID:            inv.ID,
		PatientID:     inv.PatientID,
		Items:         lines,
		Discount:      formatMoney(inv.Discount),
		Subtotal:      formatMoney(inv.Subtotal),
		TotalTax:      formatMoney(inv.TotalTax),
		TotalAmount:   formatMoney(inv.TotalAmount),
		AmountPaid:    formatMoney(inv.AmountPaid),
		BalanceDue:    formatMoney(inv.BalanceDue),
		PaymentStatus: string(inv.PaymentStatus),
		PaymentMethod: string(inv.PaymentMethod),
		Version:       inv.Version,
		CreatedAt:     formatTime(inv.CreatedAt),
		UpdatedAt:     formatTime(inv.UpdatedAt),
	}
}

func fromInvoiceItem(it invoiceItem) (entities.Invoice, error) {
	inv := entities.Invoice{
		ID:            it.ID,
		PatientID:     it.PatientID,
		Items:         make([]entities.LineItem, len(it.Items)),
		PaymentStatus: entities.PaymentStatus(it.PaymentStatus),
		PaymentMethod: entities.PaymentMethod(it.PaymentMethod),
		Version:       it.Version,
		CreatedAt:     parseTime(it.CreatedAt),
		UpdatedAt:     parseTime(it.UpdatedAt),
	}

	var err error
	decode := func(field, raw string, dst *decimal.Decimal) {
		if err != nil {
			return
		}
		*dst, err = parseDecimal(field, raw)
	}

	for i, li := range it.Items {
		line := entities.LineItem{
			Description: li.Description,
			Category:    entities.Category(li.Category),
			Quantity:    li.Quantity,
		}
		decode("unit_price", li.UnitPrice, &line.UnitPrice)
		decode("tax_rate", li.TaxRate, &line.TaxRate)
		decode("amount", li.Amount, &line.Amount)
		decode("line_tax", li.LineTax, &line.LineTax)
		inv.Items[i] = line
	}

	decode("discount", it.Discount, &inv.Discount)
	decode("subtotal", it.Subtotal, &inv.Subtotal)
	decode("total_tax", it.TotalTax, &inv.TotalTax)
	decode("total_amount", it.TotalAmount, &inv.TotalAmount)
	decode("amount_paid", it.AmountPaid, &inv.AmountPaid)
	decode("balance_due", it.BalanceDue, &inv.BalanceDue)
	if err != nil {
		return entities.Invoice{}, err
	}
	return inv, nil
}
