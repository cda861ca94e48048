package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"
	"hospital_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// fakeDynamo keeps items per table in memory and records the last transaction.
type fakeDynamo struct {
	tables   map[string]map[string]map[string]types.AttributeValue
	lastTx   *dynamodb.TransactWriteItemsInput
	txErr    error
	queryOut []*dynamodb.QueryOutput
	queries  int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamo) put(table string, item map[string]types.AttributeValue) {
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	id := item["id"].(*types.AttributeValueMemberS).Value
	f.tables[table][id] = item
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.put(aws.ToString(in.TableName), in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.tables[aws.ToString(in.TableName)][id]}, nil
}

func (f *fakeDynamo) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	out := f.queryOut[f.queries]
	f.queries++
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTx = in
	if f.txErr != nil {
		return nil, f.txErr
	}
	for _, it := range in.TransactItems {
		if it.Put != nil {
			f.put(aws.ToString(it.Put.TableName), it.Put.Item)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func sampleInvoice(t *testing.T) entities.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice([]entities.LineItem{
		{Description: "Consultation", Category: entities.CategoryConsultation, Quantity: 1, UnitPrice: decimal.NewFromInt(500)},
		{Description: "Medicine", Category: entities.CategoryMedicine, Quantity: 3, UnitPrice: decimal.RequireFromString("33.335"), TaxRate: decimal.RequireFromString("0.05")},
	}, decimal.NewFromInt(10), decimal.Zero, billing.Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv.ID = "inv-1"
	inv.PatientID = "pat-1"
	inv.Version = 1
	inv.CreatedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	inv.UpdatedAt = inv.CreatedAt
	return inv
}

func TestInvoiceDynamoRepository_CreateAndGet(t *testing.T) {
	ddb := newFakeDynamo()
	repo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")
	inv := sampleInvoice(t)

	if _, err := repo.Create(context.Background(), inv, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := ddb.tables["invoices"]["inv-1"]
	if got := stored["total_amount"].(*types.AttributeValueMemberS).Value; got != inv.TotalAmount.StringFixed(2) {
		t.Fatalf("total_amount should be stored as a fixed-2 string, got %q", got)
	}

	got, err := repo.GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "inv-1" || got.Version != 1 || !got.CreatedAt.Equal(inv.CreatedAt) {
		t.Fatalf("unexpected invoice: %+v", got)
	}
	if !got.TotalAmount.Equal(inv.TotalAmount) || !got.BalanceDue.Equal(inv.BalanceDue) || got.PaymentStatus != inv.PaymentStatus {
		t.Fatalf("money fields differ: got %+v want %+v", got, inv)
	}
	if len(got.Items) != 2 || !got.Items[1].UnitPrice.Equal(decimal.RequireFromString("33.335")) || got.Items[1].Quantity != 3 {
		t.Fatalf("line items differ: %+v", got.Items)
	}

	missing, err := repo.GetByID(context.Background(), "nope")
	if err != nil || missing.ID != "" {
		t.Fatalf("expected zero invoice for missing id, got %+v err=%v", missing, err)
	}
}

func TestInvoiceDynamoRepository_CreateWithInitialPayment(t *testing.T) {
	ddb := newFakeDynamo()
	repo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")
	inv := sampleInvoice(t)
	p := entities.Payment{ID: "pay-1", InvoiceID: inv.ID, Amount: decimal.NewFromInt(100), Method: entities.PaymentMethodCash, Date: inv.CreatedAt}

	if _, err := repo.Create(context.Background(), inv, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ddb.lastTx == nil || len(ddb.lastTx.TransactItems) != 2 {
		t.Fatalf("expected a two-item transaction")
	}
	if _, ok := ddb.tables["payments"]["pay-1"]; !ok {
		t.Fatalf("payment record not written")
	}
}

func TestInvoiceDynamoRepository_UpdatePayment(t *testing.T) {
	t.Run("conditional on version", func(t *testing.T) {
		ddb := newFakeDynamo()
		repo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")
		inv := sampleInvoice(t)
		p := entities.Payment{ID: "pay-2", InvoiceID: inv.ID, Amount: decimal.NewFromInt(100), Method: entities.PaymentMethodCard, Date: inv.CreatedAt}

		next, err := billing.ApplyPayment(inv, decimal.NewFromInt(100), billing.Policy{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		saved, err := repo.UpdatePayment(context.Background(), next, 7, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saved.Version != 8 {
			t.Fatalf("expected version 8, got %d", saved.Version)
		}

		upd := ddb.lastTx.TransactItems[0].Update
		if upd == nil || aws.ToString(upd.ConditionExpression) != "attribute_exists(#id) AND #version = :expected" {
			t.Fatalf("unexpected update: %+v", upd)
		}
		if v := upd.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value; v != "7" {
			t.Fatalf("expected version 7 in condition, got %s", v)
		}
		if v := upd.ExpressionAttributeValues[":amount_paid"].(*types.AttributeValueMemberS).Value; v != "100.00" {
			t.Fatalf("unexpected amount_paid %s", v)
		}
		if ddb.lastTx.TransactItems[1].Put == nil {
			t.Fatalf("payment put missing from transaction")
		}
	})

	t.Run("condition failure maps to version conflict", func(t *testing.T) {
		ddb := newFakeDynamo()
		ddb.txErr = &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}, {Code: aws.String("None")}},
		}
		repo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")

		_, err := repo.UpdatePayment(context.Background(), sampleInvoice(t), 1, entities.Payment{ID: "pay-3"})
		if !errors.Is(err, interfaces.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("other errors pass through", func(t *testing.T) {
		ddb := newFakeDynamo()
		ddb.txErr = errors.New("throttled")
		repo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")

		_, err := repo.UpdatePayment(context.Background(), sampleInvoice(t), 1, entities.Payment{ID: "pay-3"})
		if err == nil || errors.Is(err, interfaces.ErrVersionConflict) {
			t.Fatalf("expected raw error, got %v", err)
		}
	})
}

func TestInvoiceDynamoRepository_ListByPatientID(t *testing.T) {
	older := sampleInvoice(t)
	newer := sampleInvoice(t)
	newer.ID = "inv-2"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	ddb := newFakeDynamo()
	repo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")
	for _, inv := range []entities.Invoice{older, newer} {
		if _, err := repo.Create(context.Background(), inv, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	ddb.queryOut = []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{ddb.tables["invoices"]["inv-1"]}, LastEvaluatedKey: keyByID("inv-1")},
		{Items: []map[string]types.AttributeValue{ddb.tables["invoices"]["inv-2"]}},
	}

	got, err := repo.ListByPatientID(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ddb.queries != 2 {
		t.Fatalf("expected pagination to issue 2 queries, got %d", ddb.queries)
	}
	if len(got) != 2 || got[0].ID != "inv-2" || got[1].ID != "inv-1" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestPaymentDynamoRepository(t *testing.T) {
	ddb := newFakeDynamo()
	invRepo := NewInvoiceDynamoRepository(ddb, "invoices", "payments")
	repo := NewPaymentDynamoRepository(ddb, "payments")
	inv := sampleInvoice(t)
	first := entities.Payment{ID: "pay-1", InvoiceID: inv.ID, Amount: decimal.RequireFromString("10.5"), Method: entities.PaymentMethodCash, Date: inv.CreatedAt}
	if _, err := invRepo.Create(context.Background(), inv, &first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount.StringFixed(2) != "10.50" || got.Method != entities.PaymentMethodCash || !got.Date.Equal(first.Date) {
		t.Fatalf("unexpected payment: %+v", got)
	}

	ddb.queryOut = []*dynamodb.QueryOutput{{}}
	list, err := repo.ListByInvoiceID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}
