// Command dump prints the ledger stored in a SQLite file: balances, events
// and the latest journal entries.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/djedy/eventledger/internal/report"
	"github.com/djedy/eventledger/internal/repository"
)

func main() {
	path := flag.String("db", "eventledger.db", "SQLite file to read")
	last := flag.Int("journal", 20, "number of journal entries to show (0 for all)")
	flag.Parse()

	db, err := repository.NewSQLiteDB(*path)
	if err != nil {
		log.Fatal(err)
	}
	store := repository.NewStore(repository.NewSQLiteBackend(db), 10*time.Second)
	defer store.Close()

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	if err := dump(ctx, os.Stdout, store, *last); err != nil {
		log.Fatal(err)
	}
}

func dump(ctx context.Context, out io.Writer, store *repository.Store, last int) error {
	balances, err := store.Balances(ctx)
	if err != nil {
		return err
	}
	events, err := store.Events(ctx)
	if err != nil {
		return err
	}
	txs, err := store.Transactions(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "💰 CUENTAS")
	fmt.Fprintln(w, "Cuenta\tActual\tPendiente\tTotal")
	for _, b := range balances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Account, report.Money(b.Current), report.Money(b.Pending), report.Money(b.Total()))
	}

	fmt.Fprintf(w, "\n🎉 EVENTOS (%d)\n", len(events))
	fmt.Fprintln(w, "ID\tNombre\tEstado\tPresupuesto\tPagado\tPendiente\tGastos")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Status,
			report.Money(e.Budget), report.Money(e.PaidTotal), report.Money(e.Pending), report.Money(e.ExpensesTotal))
	}

	if last > 0 && len(txs) > last {
		txs = txs[len(txs)-last:]
	}
	fmt.Fprintf(w, "\n📒 DIARIO (%d)\n", len(txs))
	fmt.Fprintln(w, "Fecha\tTipo\tCuenta\tMonto\tCategoría\tDescripción")
	for _, t := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Date.Format("02-01-2006 15:04"), t.Type, t.Account,
			report.Money(t.Amount), t.Category, t.Description)
	}
	return w.Flush()
}
