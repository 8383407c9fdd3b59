package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/scalpi-pos/api/internal/database"
)

// fakeLedger is an in-memory stand-in for *database.Queries covering the
// ledger, registry, settings and sales tables.
type fakeLedger struct {
	mu        sync.Mutex
	ops       []database.Operation
	employees map[string]database.Employee
	settings  map[string]string
	sales     []database.SaleRecord
	items     []database.AssortmentItem

	lastPage database.ListOperationsPageParams
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		employees: make(map[string]database.Employee),
		settings:  map[string]string{"tax_cashless": "0"},
	}
}

func (f *fakeLedger) addEmployee(id, name string, owner bool, percent string) {
	f.employees[id] = database.Employee{ID: id, Name: name, IsOwner: owner, Percent: numeric(percent)}
}

func (f *fakeLedger) addOp(opType, method, amount, employeeID, employeeName string, date time.Time) database.Operation {
	op := database.Operation{
		ID:            uuid.New(),
		OpType:        opType,
		OpDate:        database.DateOf(date),
		Amount:        numeric(amount),
		PaymentMethod: method,
		EmployeeName:  employeeName,
	}
	if employeeID != "" {
		op.EmployeeID = pgtype.Text{String: employeeID, Valid: true}
	}
	f.ops = append(f.ops, op)
	return op
}

func (f *fakeLedger) GetSetting(_ context.Context, key string) (database.AppSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	if !ok {
		return database.AppSetting{}, pgx.ErrNoRows
	}
	return database.AppSetting{Key: key, Value: v}, nil
}

func (f *fakeLedger) UpsertSetting(_ context.Context, arg database.UpsertSettingParams) (database.AppSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[arg.Key] = arg.Value
	return database.AppSetting{Key: arg.Key, Value: arg.Value}, nil
}

func (f *fakeLedger) CreateOperation(_ context.Context, arg database.CreateOperationParams) (database.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := database.Operation{
		ID:            uuid.New(),
		OpType:        arg.OpType,
		OpDate:        arg.OpDate,
		Amount:        arg.Amount,
		PaymentMethod: arg.PaymentMethod,
		EmployeeID:    arg.EmployeeID,
		EmployeeName:  arg.EmployeeName,
		Note:          arg.Note,
		TaxNote:       arg.TaxNote,
		CreatedAt:     time.Now(),
	}
	f.ops = append(f.ops, op)
	return op, nil
}

func (f *fakeLedger) GetEmployee(_ context.Context, id string) (database.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	return e, nil
}

func (f *fakeLedger) GetEmployeeByName(_ context.Context, name string) (database.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.employees {
		if e.Name == name {
			return e, nil
		}
	}
	return database.Employee{}, pgx.ErrNoRows
}

func (f *fakeLedger) DeleteOperation(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, op := range f.ops {
		if op.ID == id {
			f.ops = append(f.ops[:i], f.ops[i+1:]...)
			return id, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

func (f *fakeLedger) DeleteFirstOperationByNote(_ context.Context, note string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, op := range f.ops {
		if op.Note == note {
			f.ops = append(f.ops[:i], f.ops[i+1:]...)
			return op.ID, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

func (f *fakeLedger) CountOperationsByNote(_ context.Context, note string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, op := range f.ops {
		if op.Note == note {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) ListOperations(_ context.Context) ([]database.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.Operation{}, f.ops...), nil
}

func (f *fakeLedger) ListOperationsPage(_ context.Context, arg database.ListOperationsPageParams) ([]database.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPage = arg
	result := []database.Operation{}
	for _, op := range f.ops {
		if arg.OpType.Valid && op.OpType != arg.OpType.String {
			continue
		}
		result = append(result, op)
	}
	return result, nil
}

func (f *fakeLedger) ListEmployees(_ context.Context) ([]database.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []database.Employee{}
	for _, e := range f.employees {
		result = append(result, e)
	}
	return result, nil
}

func (f *fakeLedger) ListSaleRecords(_ context.Context) ([]database.SaleRecord, error) {
	return f.sales, nil
}

func (f *fakeLedger) ListAssortmentItems(_ context.Context) ([]database.AssortmentItem, error) {
	return f.items, nil
}

// --- Helpers ---

func numeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeObject(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

func decodeArray(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Publish(channel, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, channel+":"+eventType)
}

func (b *recordingBroadcaster) has(event string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e == event {
			return true
		}
	}
	return false
}
