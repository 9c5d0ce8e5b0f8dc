package waitlist

import (
	"sort"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// Rank упорядочивает записи: urgent, vip, normal, внутри группы по возрастанию позиции.
// Исходный срез не меняется
func Rank(entries []*domain.WaitlistEntry) []*domain.WaitlistEntry {
	ranked := append([]*domain.WaitlistEntry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.Position < b.Position
	})
	return ranked
}
