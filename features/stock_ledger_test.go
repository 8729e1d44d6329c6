package features

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

// missingProductID id que nunca existe en el store del escenario.
const missingProductID = 9999

type ledgerTestContext struct {
	store      *memory.Store
	uc         *appinventory.TransactionUseCase
	categoryID int64
	products   map[string]int64
	applied    []int64
	err        error
	concurrent []error
}

func (c *ledgerTestContext) reset() {
	c.store = memory.New()
	c.uc = appinventory.NewTransactionUseCase(c.store, c.store.Products(), c.store.Transactions(), nil, nil, appinventory.Options{})
	c.categoryID = 0
	c.products = make(map[string]int64)
	c.applied = nil
	c.err = nil
	c.concurrent = nil
}

func (c *ledgerTestContext) productID(name string) int64 {
	if id, ok := c.products[name]; ok {
		return id
	}
	return missingProductID
}

// ─── Given ───────────────────────────────────────────────────────────────────

func (c *ledgerTestContext) aProductWithStock(name string, stock int) error {
	ctx := context.Background()
	if c.categoryID == 0 {
		cat := &entity.Category{Name: "General"}
		if err := c.store.Categories().Create(ctx, cat); err != nil {
			return err
		}
		c.categoryID = cat.ID
	}
	p := &entity.Product{Name: name, CategoryID: c.categoryID, Stock: int64(stock), Price: decimal.NewFromInt(1)}
	if err := c.store.Products().Create(ctx, p); err != nil {
		return err
	}
	c.products[name] = p.ID
	return nil
}

// ─── When ────────────────────────────────────────────────────────────────────

func parseType(s string) entity.MovementType {
	if t, ok := entity.ParseMovementType(s); ok {
		return t
	}
	return entity.MovementType(s)
}

func (c *ledgerTestContext) iApplyATransactionOfTo(movementType string, quantity int, name string) error {
	out, err := c.uc.ApplyTransaction(context.Background(), inventory.Line{
		ProductID: c.productID(name),
		Type:      parseType(movementType),
		Quantity:  int64(quantity),
	})
	c.err = err
	if err == nil {
		c.applied = append(c.applied, out.ID)
	}
	return nil
}

func (c *ledgerTestContext) iApplyTheBulkBatch(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("la tabla necesita encabezado y al menos una fila")
	}
	lines := make([]inventory.Line, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		qty, err := strconv.ParseInt(row.Cells[2].Value, 10, 64)
		if err != nil {
			return err
		}
		lines = append(lines, inventory.Line{
			ProductID: c.productID(row.Cells[0].Value),
			Type:      parseType(row.Cells[1].Value),
			Quantity:  qty,
		})
	}
	out, err := c.uc.ApplyBulk(context.Background(), lines)
	c.err = err
	if err == nil {
		c.applied = append(c.applied, out.InsertedIDs...)
	}
	return nil
}

func (c *ledgerTestContext) deleteApplied(i int) error {
	if len(c.applied) == 0 {
		return fmt.Errorf("no hay transacciones aplicadas")
	}
	c.err = c.uc.DeleteTransaction(context.Background(), c.applied[i])
	return nil
}

func (c *ledgerTestContext) iDeleteTheLastTransaction() error {
	return c.deleteApplied(len(c.applied) - 1)
}

func (c *ledgerTestContext) iDeleteTheFirstTransaction() error {
	return c.deleteApplied(0)
}

func (c *ledgerTestContext) clientsConcurrentlyTakeUnitOf(clients, quantity int, name string) error {
	id := c.productID(name)
	errs := make([]error, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.uc.ApplyTransaction(context.Background(), inventory.Line{
				ProductID: id,
				Type:      entity.MovementStockOut,
				Quantity:  int64(quantity),
			})
		}(i)
	}
	wg.Wait()
	c.concurrent = errs
	return nil
}

// ─── Then ────────────────────────────────────────────────────────────────────

var errKinds = map[string]error{
	"InvalidArgument":   domain.ErrInvalidInput,
	"NotFound":          domain.ErrNotFound,
	"InsufficientStock": domain.ErrInsufficientStock,
	"Conflict":          domain.ErrConflict,
}

func matchKind(err error, kind string) error {
	want, ok := errKinds[kind]
	if !ok {
		return fmt.Errorf("tipo de error desconocido %q", kind)
	}
	if err == nil {
		return fmt.Errorf("se esperaba %s y la operación tuvo éxito", kind)
	}
	if !errors.Is(err, want) {
		return fmt.Errorf("se esperaba %s, se obtuvo: %v", kind, err)
	}
	return nil
}

func (c *ledgerTestContext) theOperationSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("error inesperado: %v", c.err)
	}
	return nil
}

func (c *ledgerTestContext) theOperationFailsWith(kind string) error {
	return matchKind(c.err, kind)
}

func (c *ledgerTestContext) theErrorReportsAvailableAndRequested(available, requested int) error {
	var ise *domain.InsufficientStockError
	if !errors.As(c.err, &ise) {
		return fmt.Errorf("se esperaba InsufficientStockError, se obtuvo: %v", c.err)
	}
	if ise.Available != int64(available) || ise.Requested != int64(requested) {
		return fmt.Errorf("available=%d requested=%d, se esperaba %d/%d", ise.Available, ise.Requested, available, requested)
	}
	return nil
}

func (c *ledgerTestContext) theErrorMessageContains(substr string) error {
	if c.err == nil || !strings.Contains(c.err.Error(), substr) {
		return fmt.Errorf("el error %v no contiene %q", c.err, substr)
	}
	return nil
}

func (c *ledgerTestContext) theStockOfIs(name string, want int) error {
	p, err := c.store.Products().GetByID(context.Background(), c.productID(name))
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("producto %q no existe", name)
	}
	if p.Stock != int64(want) {
		return fmt.Errorf("stock de %s = %d, se esperaba %d", name, p.Stock, want)
	}
	return nil
}

func (c *ledgerTestContext) theLedgerHasTransactions(want int) error {
	_, total, err := c.store.Transactions().List(context.Background(), repository.TransactionFilter{Limit: 1})
	if err != nil {
		return err
	}
	if total != want {
		return fmt.Errorf("el libro tiene %d transacciones, se esperaban %d", total, want)
	}
	return nil
}

func (c *ledgerTestContext) exactlyOfTheConcurrentRequestsSucceeds(want int) error {
	ok := 0
	for _, err := range c.concurrent {
		if err == nil {
			ok++
		}
	}
	if ok != want {
		return fmt.Errorf("%d peticiones exitosas, se esperaba %d", ok, want)
	}
	return nil
}

func (c *ledgerTestContext) theOthersFailWith(kind string) error {
	for _, err := range c.concurrent {
		if err == nil {
			continue
		}
		if e := matchKind(err, kind); e != nil {
			return e
		}
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a product "([^"]*)" with stock (\d+)$`, tc.aProductWithStock)

	// When steps
	ctx.Step(`^I apply a "([^"]*)" transaction of (\d+) to "([^"]*)"$`, tc.iApplyATransactionOfTo)
	ctx.Step(`^I apply the bulk batch:$`, tc.iApplyTheBulkBatch)
	ctx.Step(`^I delete the last transaction$`, tc.iDeleteTheLastTransaction)
	ctx.Step(`^I delete the first transaction$`, tc.iDeleteTheFirstTransaction)
	ctx.Step(`^(\d+) clients concurrently take (\d+) units? of "([^"]*)"$`, tc.clientsConcurrentlyTakeUnitOf)

	// Then steps
	ctx.Step(`^the operation succeeds$`, tc.theOperationSucceeds)
	ctx.Step(`^the operation fails with "([^"]*)"$`, tc.theOperationFailsWith)
	ctx.Step(`^the error reports available (\d+) and requested (\d+)$`, tc.theErrorReportsAvailableAndRequested)
	ctx.Step(`^the error message contains "([^"]*)"$`, tc.theErrorMessageContains)
	ctx.Step(`^the stock of "([^"]*)" is (-?\d+)$`, tc.theStockOfIs)
	ctx.Step(`^the ledger has (\d+) transactions$`, tc.theLedgerHasTransactions)
	ctx.Step(`^exactly (\d+) of the concurrent requests succeeds$`, tc.exactlyOfTheConcurrentRequestsSucceeds)
	ctx.Step(`^the others fail with "([^"]*)"$`, tc.theOthersFailWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"stock_ledger.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
