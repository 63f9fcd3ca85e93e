package postgres

import (
	"fmt"
	"time"
)

// windowClauses builds conditional time-bound fragments for a query.
// Нулевая граница означает отсутствие ограничения и в запрос не
// попадает - так полуоткрытые окна (только from или только to)
// совпадают с контрактом ledger.HistoryFilter. Возвращает фрагмент
// вида " AND col >= $n AND col < $m" и дополненный список аргументов.
func windowClauses(col string, from, to time.Time, args []interface{}) (string, []interface{}) {
	var clause string
	if !from.IsZero() {
		args = append(args, from)
		clause += fmt.Sprintf(" AND %s >= $%d", col, len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		clause += fmt.Sprintf(" AND %s < $%d", col, len(args))
	}
	return clause, args
}
