package repository

// Table is the logical name of one of the five ledger tables.
type Table string

const (
	TableEvents        Table = "events"
	TableEventPayments Table = "event_payments"
	TableTransactions  Table = "transactions"
	TableBalances      Table = "account_balances"
	TableState         Table = "conversation_state"
)

// Account names. The set is fixed; balances are seeded with exactly these rows.
const (
	AccountPersonal = "Personal"
	AccountCompany  = "DJ EDY"
	AccountSavings  = "Ahorros"
)

var Accounts = []string{AccountPersonal, AccountCompany, AccountSavings}

// Schema describes how a table is laid out. Title is the sheet name used
// by the spreadsheet backend; Columns is the header row, key column first.
type Schema struct {
	Table   Table
	Title   string
	Columns []string
}

func (s Schema) columnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column names.
const (
	ColID          = "id"
	ColName        = "nombre"
	ColClient      = "cliente"
	ColBudget      = "presupuesto_total"
	ColInitDeposit = "deposito_inicial"
	ColPaidTotal   = "pagado_total"
	ColPending     = "pendiente"
	ColStatus      = "estado"
	ColEventDate   = "fecha_evento"
	ColCreatedAt   = "fecha_creacion"
	ColNotes       = "notas"
	ColExpenses    = "gastos_totales"

	ColEventID       = "evento_id"
	ColType          = "tipo"
	ColAmount        = "monto"
	ColDate          = "fecha"
	ColSplitDone     = "reparticion_hecha"
	ColSplitPersonal = "repartido_personal"
	ColSplitSavings  = "repartido_ahorro"
	ColSplitCompany  = "repartido_empresa"

	ColAccount     = "cuenta"
	ColDescription = "descripcion"
	ColCategory    = "categoria"

	ColBalanceCurrent = "balance_actual"
	ColBalancePending = "balance_pendiente"
	ColUpdatedAt      = "ultima_actualizacion"

	ColChatID          = "chat_id"
	ColStep            = "step"
	ColTransactionType = "transaction_type"
	ColStateEvent      = "event"
	ColStateAmount     = "amount"
	ColTimestamp       = "timestamp"
	ColMetadata        = "metadata"
)

var Schemas = []Schema{
	{
		Table: TableEvents,
		Title: "eventos",
		Columns: []string{
			ColID, ColName, ColClient, ColBudget, ColInitDeposit, ColPaidTotal,
			ColPending, ColStatus, ColEventDate, ColCreatedAt, ColNotes, ColExpenses,
		},
	},
	{
		Table: TableEventPayments,
		Title: "pagos_eventos",
		Columns: []string{
			ColID, ColEventID, ColType, ColAmount, ColDate, ColSplitDone,
			ColSplitPersonal, ColSplitSavings, ColSplitCompany, ColNotes,
		},
	},
	{
		Table: TableTransactions,
		Title: "transacciones",
		Columns: []string{
			ColID, ColDate, ColType, ColAccount, ColAmount, ColDescription, ColEventID, ColCategory,
		},
	},
	{
		Table:   TableBalances,
		Title:   "balance_cuentas",
		Columns: []string{ColAccount, ColBalanceCurrent, ColBalancePending, ColUpdatedAt},
	},
	{
		Table: TableState,
		Title: "state",
		Columns: []string{
			ColChatID, ColStep, ColTransactionType, ColStateEvent, ColStateAmount, ColTimestamp, ColMetadata,
		},
	},
}

// SchemaFor returns the layout of t.
func SchemaFor(t Table) (Schema, bool) {
	for _, s := range Schemas {
		if s.Table == t {
			return s, true
		}
	}
	return Schema{}, false
}
