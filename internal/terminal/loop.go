// Package terminal runs the interactive register loop: it reads cashier
// input, routes commands, and treats any unrecognized token as a scan.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oaramirez/grocerpos/internal/catalog"
	"github.com/oaramirez/grocerpos/internal/checkout"
	"github.com/oaramirez/grocerpos/internal/customers"
	"github.com/oaramirez/grocerpos/internal/notify"
	"github.com/oaramirez/grocerpos/internal/pricing"
	"github.com/oaramirez/grocerpos/internal/receipt"
	"github.com/oaramirez/grocerpos/pkg/enums"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/money"
)

const searchLimit = 10

type productResolver interface {
	Resolve(ctx context.Context, token string) (*catalog.Product, error)
}

type catalogBrowser interface {
	SearchByName(query string, limit int) []catalog.Product
	Load(ctx context.Context) error
}

type customerDirectory interface {
	List(ctx context.Context) ([]customers.Customer, error)
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

type saleSubmitter interface {
	Submit(ctx context.Context, session *checkout.Session, method enums.PaymentMethod) (*checkout.Result, error)
	Acknowledge()
}

// PrintSink receives rendered receipts for physical output.
type PrintSink interface {
	Print(doc receipt.Document) error
}

// WriterSink prints receipts to a plain stream. It is the default sink
// when no printer is attached.
type WriterSink struct {
	Out io.Writer
}

func (s WriterSink) Print(doc receipt.Document) error {
	_, err := io.WriteString(s.Out, doc.String())
	return err
}

// Config carries the loop's collaborators.
type Config struct {
	In        io.Reader
	Out       io.Writer
	Session   *checkout.Session
	Checkout  saleSubmitter
	Resolver  productResolver
	Catalog   catalogBrowser
	Customers customerDirectory
	Renderer  *receipt.Renderer
	Notifier  notify.Notifier
	Printer   PrintSink
	Logger    *logger.Logger
}

// Loop is the register event loop. Input is processed one line at a
// time on the calling goroutine.
type Loop struct {
	cfg         Config
	lastReceipt *receipt.Document
}

func New(cfg Config) (*Loop, error) {
	if cfg.In == nil || cfg.Out == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "terminal streams are required")
	}
	if cfg.Session == nil || cfg.Checkout == nil || cfg.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session, checkout, and resolver are required")
	}
	if cfg.Catalog == nil || cfg.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog and customers are required")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = receipt.NewRenderer(0)
	}
	if cfg.Printer == nil {
		cfg.Printer = WriterSink{Out: cfg.Out}
	}
	if cfg.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &Loop{cfg: cfg}, nil
}

// Run processes input lines until the stream ends, the cashier quits, or
// the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.cfg.In)
	l.printf("Ready. Scan a barcode or type 'help'.")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := l.dispatch(ctx, line); quit {
			return nil
		}
	}
	return scanner.Err()
}

// dispatch routes one input line. It returns true when the cashier asked
// to quit.
func (l *Loop) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		l.printHelp()
	case "cart":
		l.printCart()
	case "totals":
		l.printTotals()
	case "find":
		l.handleFind(strings.Join(args, " "))
	case "qty":
		l.handleQty(args)
	case "rm":
		l.handleRemove(args)
	case "clear":
		l.cfg.Session.Reset()
		l.notify(pkgerrors.SeverityInfo, "Sale cleared")
	case "discount":
		l.handleDiscount(args)
	case "customers":
		l.handleCustomers(ctx)
	case "customer":
		l.handleCustomer(ctx, args)
	case "checkout":
		l.handleCheckout(ctx, args)
	case "print":
		l.handlePrint()
	case "reload":
		l.handleReload(ctx)
	default:
		l.handleScan(ctx, line)
	}
	return false
}

// handleScan resolves a raw token against the catalog and adds the hit
// to the sale. The session epoch is captured before the resolve so a
// result arriving after a clear is dropped instead of reviving the sale.
func (l *Loop) handleScan(ctx context.Context, token string) {
	epoch := l.cfg.Session.Epoch()
	product, err := l.cfg.Resolver.Resolve(ctx, token)
	if err != nil {
		notify.NotifyError(l.cfg.Notifier, err)
		return
	}
	if product == nil {
		l.notify(pkgerrors.SeverityWarning, "Product not found for barcode: "+token)
		return
	}
	if err := l.cfg.Session.AddProduct(epoch, *product); err != nil {
		if errors.Is(err, checkout.ErrStaleResult) {
			l.cfg.Logger.Debug(ctx, "dropped scan result for cleared sale")
			return
		}
		notify.NotifyError(l.cfg.Notifier, err)
		return
	}
	l.printf("Added %s  %s", product.Name, money.Format(product.SellingPrice))
}

func (l *Loop) handleFind(query string) {
	if strings.TrimSpace(query) == "" {
		l.notify(pkgerrors.SeverityWarning, "usage: find <name>")
		return
	}
	matches := l.cfg.Catalog.SearchByName(query, searchLimit)
	if len(matches) == 0 {
		l.printf("No products match %q", query)
		return
	}
	for _, p := range matches {
		l.printf("  #%d %s  %s  (stock %d)", p.ID, p.Name, money.Format(p.SellingPrice), p.StockQuantity)
	}
}

func (l *Loop) handleQty(args []string) {
	if len(args) != 2 {
		l.notify(pkgerrors.SeverityWarning, "usage: qty <product-id> <delta>")
		return
	}
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	delta, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		l.notify(pkgerrors.SeverityWarning, "usage: qty <product-id> <delta>")
		return
	}
	if !l.cfg.Session.UpdateQuantity(id, delta) {
		l.notify(pkgerrors.SeverityWarning, fmt.Sprintf("product %d is not in the cart", id))
		return
	}
	l.printCart()
}

func (l *Loop) handleRemove(args []string) {
	if len(args) != 1 {
		l.notify(pkgerrors.SeverityWarning, "usage: rm <product-id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		l.notify(pkgerrors.SeverityWarning, "usage: rm <product-id>")
		return
	}
	if !l.cfg.Session.Remove(id) {
		l.notify(pkgerrors.SeverityWarning, fmt.Sprintf("product %d is not in the cart", id))
	}
}

func (l *Loop) handleDiscount(args []string) {
	if len(args) == 1 && strings.EqualFold(args[0], "off") {
		_ = l.cfg.Session.SetDiscount(pricing.None())
		l.notify(pkgerrors.SeverityInfo, "Discount removed")
		return
	}
	if len(args) != 2 {
		l.notify(pkgerrors.SeverityWarning, "usage: discount percentage|fixed <value> | discount off")
		return
	}
	kind, err := enums.ParseDiscountType(strings.ToLower(args[0]))
	if err != nil {
		l.notify(pkgerrors.SeverityWarning, "usage: discount percentage|fixed <value> | discount off")
		return
	}
	value, err := decimal.NewFromString(args[1])
	if err != nil {
		l.notify(pkgerrors.SeverityWarning, "discount value must be a number")
		return
	}
	if err := l.cfg.Session.SetDiscount(pricing.Discount{Type: kind, Value: value}); err != nil {
		notify.NotifyError(l.cfg.Notifier, err)
		return
	}
	l.printTotals()
}

func (l *Loop) handleCustomers(ctx context.Context) {
	list, err := l.cfg.Customers.List(ctx)
	if err != nil {
		notify.NotifyError(l.cfg.Notifier, err)
		return
	}
	if len(list) == 0 {
		l.printf("No customers on file")
		return
	}
	for _, c := range list {
		l.printf("  #%d %s  (%d pts)", c.ID, c.Name, c.LoyaltyPoints)
	}
}

func (l *Loop) handleCustomer(ctx context.Context, args []string) {
	if len(args) != 1 {
		l.notify(pkgerrors.SeverityWarning, "usage: customer <id> | customer off")
		return
	}
	if strings.EqualFold(args[0], "off") {
		l.cfg.Session.SetCustomer(nil)
		l.notify(pkgerrors.SeverityInfo, "Customer detached")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		l.notify(pkgerrors.SeverityWarning, "usage: customer <id> | customer off")
		return
	}
	customer, err := l.cfg.Customers.Get(ctx, id)
	if err != nil {
		notify.NotifyError(l.cfg.Notifier, err)
		return
	}
	l.cfg.Session.SetCustomer(customer)
	l.notify(pkgerrors.SeverityInfo, "Customer attached: "+customer.Name)
}

// handleCheckout submits the sale. An empty cart or an in-flight submit
// produces no result and no message beyond what the service decides.
func (l *Loop) handleCheckout(ctx context.Context, args []string) {
	if len(args) != 1 {
		l.notify(pkgerrors.SeverityWarning, "usage: checkout cash|card")
		return
	}
	method, err := enums.ParsePaymentMethod(strings.ToLower(args[0]))
	if err != nil {
		l.notify(pkgerrors.SeverityWarning, "usage: checkout cash|card")
		return
	}

	result, err := l.cfg.Checkout.Submit(ctx, l.cfg.Session, method)
	if err != nil {
		notify.NotifyError(l.cfg.Notifier, err)
		l.cfg.Checkout.Acknowledge()
		return
	}
	if result == nil {
		return
	}

	l.notify(pkgerrors.SeveritySuccess, fmt.Sprintf("Sale #%d successful", result.TransactionID))
	if result.Receipt != nil {
		doc := l.cfg.Renderer.Render(*result.Receipt)
		l.lastReceipt = &doc
		l.printf("%s", doc.String())
	} else if result.ReceiptErr != nil {
		l.lastReceipt = nil
		notify.NotifyError(l.cfg.Notifier, result.ReceiptErr)
	}
	l.cfg.Checkout.Acknowledge()
}

func (l *Loop) handlePrint() {
	if l.lastReceipt == nil {
		l.notify(pkgerrors.SeverityWarning, "No receipt to print")
		return
	}
	if err := l.cfg.Printer.Print(*l.lastReceipt); err != nil {
		notify.NotifyError(l.cfg.Notifier, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "printer rejected the receipt"))
	}
}

func (l *Loop) handleReload(ctx context.Context) {
	if err := l.cfg.Catalog.Load(ctx); err != nil {
		notify.NotifyError(l.cfg.Notifier, err)
		return
	}
	l.notify(pkgerrors.SeverityInfo, "Catalog reloaded")
}

func (l *Loop) printCart() {
	lines := l.cfg.Session.Lines()
	if len(lines) == 0 {
		l.printf("Cart is empty")
		return
	}
	for _, line := range lines {
		l.printf("  #%d %s x%d  %s", line.ProductID, line.Name, line.Quantity, money.Format(line.LineTotal()))
	}
	l.printTotals()
}

func (l *Loop) printTotals() {
	totals := l.cfg.Session.Totals()
	l.printf("Subtotal %s", money.Format(totals.Subtotal))
	if totals.DiscountAmount.IsPositive() {
		l.printf("Discount %s", money.FormatDeduction(totals.DiscountAmount))
	}
	l.printf("Tax      %s", money.Format(totals.Tax))
	l.printf("Total    %s", money.Format(totals.Total))
}

func (l *Loop) printHelp() {
	l.printf("Commands:")
	l.printf("  <token>                scan a barcode or product name")
	l.printf("  find <name>            search the catalog")
	l.printf("  cart                   show the current sale")
	l.printf("  totals                 show sale totals")
	l.printf("  qty <id> <delta>       adjust a line quantity")
	l.printf("  rm <id>                remove a line")
	l.printf("  clear                  start a fresh sale")
	l.printf("  discount percentage|fixed <value> | discount off")
	l.printf("  customers              list customers")
	l.printf("  customer <id> | customer off")
	l.printf("  checkout cash|card     commit the sale")
	l.printf("  print                  reprint the last receipt")
	l.printf("  reload                 refresh the catalog")
	l.printf("  quit                   leave the register")
}

func (l *Loop) printf(format string, args ...any) {
	fmt.Fprintf(l.cfg.Out, format+"\n", args...)
}

func (l *Loop) notify(severity pkgerrors.Severity, message string) {
	if l.cfg.Notifier == nil {
		return
	}
	l.cfg.Notifier.Notify(severity, message)
}
