package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// DayView appointments of a day: scheduled ones by ascending start,
// walk-ins separately in insertion order
type DayView struct {
	Scheduled []*domain.Appointment
	WalkIns   []*domain.Appointment
}

// Undo inverse of a single index mutation. Prior == nil means the
// appointment did not exist before and reverting removes it.
type Undo struct {
	CompanyID string
	ID        string
	Prior     *domain.Appointment

	walkInPos int
	removed   bool
}

// Snapshot full copy of a tenant's index used to compare states
type Snapshot struct {
	Appointments map[string]*domain.Appointment
	Buckets      map[string][]string
	WalkIns      []string
}

type bucketKey struct {
	professionalID string
	day            string
}

type book struct {
	byID    map[string]*domain.Appointment
	buckets map[bucketKey][]*domain.Appointment
	walkIns []string

	// loaded дни, сверенные с хранилищем
	loaded map[string]struct{}
	// removed записи, убранные из индекса после последней загрузки дня
	removed map[string]struct{}
}

func newBook() *book {
	return &book{
		byID:    make(map[string]*domain.Appointment),
		buckets: make(map[bucketKey][]*domain.Appointment),
		loaded:  make(map[string]struct{}),
		removed: make(map[string]struct{}),
	}
}

// Index материализованное представление агенды по компаниям,
// профессионалам и дням
type Index struct {
	mu    sync.RWMutex
	loc   *time.Location
	books map[string]*book
}

// NewIndex создает пустой индекс. Границы дней считаются в loc
func NewIndex(loc *time.Location) *Index {
	if loc == nil {
		loc = time.UTC
	}
	return &Index{
		loc:   loc,
		books: make(map[string]*book),
	}
}

// Location часовой пояс, в котором индекс режет дни
func (x *Index) Location() *time.Location {
	return x.loc
}

// Get возвращает копию записи по ID
func (x *Index) Get(companyID, id string) (*domain.Appointment, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	b, ok := x.books[companyID]
	if !ok {
		return nil, false
	}
	a, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// AppointmentsFor возвращает агенду профессионала на день.
// Walk-in записи этого профессионала возвращаются отдельно
func (x *Index) AppointmentsFor(companyID, professionalID string, day time.Time) DayView {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var view DayView
	b, ok := x.books[companyID]
	if !ok {
		return view
	}

	key := bucketKey{professionalID: professionalID, day: x.dayKey(day)}
	for _, a := range b.buckets[key] {
		view.Scheduled = append(view.Scheduled, a.Clone())
	}
	for _, id := range b.walkIns {
		if a := b.byID[id]; a.ProfessionalID == professionalID {
			view.WalkIns = append(view.WalkIns, a.Clone())
		}
	}
	return view
}

// Day возвращает агенду всех профессионалов компании на день
func (x *Index) Day(companyID string, day time.Time) DayView {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var view DayView
	b, ok := x.books[companyID]
	if !ok {
		return view
	}

	dayKey := x.dayKey(day)
	for key, bucket := range b.buckets {
		if key.day != dayKey {
			continue
		}
		for _, a := range bucket {
			view.Scheduled = append(view.Scheduled, a.Clone())
		}
	}
	sortByStart(view.Scheduled)

	for _, id := range b.walkIns {
		view.WalkIns = append(view.WalkIns, b.byID[id].Clone())
	}
	return view
}

// Upsert вставляет или заменяет запись по ID.
// Удаленные (soft-delete) записи из индекса убираются
func (x *Index) Upsert(companyID string, a *domain.Appointment) Undo {
	x.mu.Lock()
	defer x.mu.Unlock()

	b := x.book(companyID)
	undo := x.detach(b, companyID, a.ID)
	if a.IsDeleted() {
		b.removed[a.ID] = struct{}{}
		return undo
	}
	delete(b.removed, a.ID)
	x.attach(b, a.Clone(), undo.walkInPos)
	return undo
}

// Remove убирает запись из индекса независимо от ее корзины
func (x *Index) Remove(companyID, id string) Undo {
	x.mu.Lock()
	defer x.mu.Unlock()

	b := x.book(companyID)
	undo := x.detach(b, companyID, id)
	b.removed[id] = struct{}{}
	return undo
}

// Revert применяет обратные операции в обратном порядке
func (x *Index) Revert(undos ...Undo) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for i := len(undos) - 1; i >= 0; i-- {
		u := undos[i]
		b := x.book(u.CompanyID)
		x.detach(b, u.CompanyID, u.ID)
		if u.Prior != nil {
			x.attach(b, u.Prior.Clone(), u.walkInPos)
		}
		if u.removed {
			b.removed[u.ID] = struct{}{}
		} else {
			delete(b.removed, u.ID)
		}
	}
}

// Load заменяет день компании данными из хранилища:
// записи дня по всем профессионалам и все walk-in записи
func (x *Index) Load(companyID string, day time.Time, appointments []*domain.Appointment) {
	x.mu.Lock()
	defer x.mu.Unlock()

	b := x.book(companyID)
	dayKey := x.dayKey(day)
	for key, bucket := range b.buckets {
		if key.day != dayKey {
			continue
		}
		for _, a := range bucket {
			delete(b.byID, a.ID)
		}
		delete(b.buckets, key)
	}
	for _, id := range b.walkIns {
		delete(b.byID, id)
	}
	b.walkIns = nil

	b.removed = make(map[string]struct{})
	b.loaded[dayKey] = struct{}{}

	for _, a := range appointments {
		if a.IsDeleted() {
			continue
		}
		x.detach(b, companyID, a.ID)
		x.attach(b, a.Clone(), -1)
	}
}

// IsLoaded сообщает, сверялся ли день компании с хранилищем
func (x *Index) IsLoaded(companyID string, day time.Time) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	b, ok := x.books[companyID]
	if !ok {
		return false
	}
	_, ok = b.loaded[x.dayKey(day)]
	return ok
}

// Merge добавляет записи дня из хранилища, не трогая уже известные индексу.
// Записи в индексе новее хранилища: они могут ждать синхронизации
func (x *Index) Merge(companyID string, day time.Time, appointments []*domain.Appointment) {
	x.mu.Lock()
	defer x.mu.Unlock()

	b := x.book(companyID)
	b.loaded[x.dayKey(day)] = struct{}{}

	for _, a := range appointments {
		if a.IsDeleted() {
			continue
		}
		if _, ok := b.byID[a.ID]; ok {
			continue
		}
		if _, ok := b.removed[a.ID]; ok {
			continue
		}
		x.attach(b, a.Clone(), -1)
	}
}

// Snapshot возвращает полную копию состояния компании
func (x *Index) Snapshot(companyID string) Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()

	snap := Snapshot{
		Appointments: make(map[string]*domain.Appointment),
		Buckets:      make(map[string][]string),
	}
	b, ok := x.books[companyID]
	if !ok {
		return snap
	}

	for id, a := range b.byID {
		snap.Appointments[id] = a.Clone()
	}
	for key, bucket := range b.buckets {
		ids := make([]string, len(bucket))
		for i, a := range bucket {
			ids[i] = a.ID
		}
		snap.Buckets[key.professionalID+"/"+key.day] = ids
	}
	snap.WalkIns = append([]string(nil), b.walkIns...)
	return snap
}

func (x *Index) book(companyID string) *book {
	b, ok := x.books[companyID]
	if !ok {
		b = newBook()
		x.books[companyID] = b
	}
	return b
}

func (x *Index) dayKey(t time.Time) string {
	return domain.DayStart(t, x.loc).Format(domain.DateFormat)
}

// attach кладет запись в корзину дня или в очередь walk-in на позицию pos (-1 = в конец)
func (x *Index) attach(b *book, a *domain.Appointment, pos int) {
	b.byID[a.ID] = a

	if a.IsWalkIn() {
		if pos < 0 || pos > len(b.walkIns) {
			pos = len(b.walkIns)
		}
		b.walkIns = append(b.walkIns, "")
		copy(b.walkIns[pos+1:], b.walkIns[pos:])
		b.walkIns[pos] = a.ID
		return
	}

	key := bucketKey{professionalID: a.ProfessionalID, day: x.dayKey(*a.StartAt)}
	b.buckets[key] = append(b.buckets[key], a)
	sortByStart(b.buckets[key])
}

// detach убирает запись и возвращает обратную операцию
func (x *Index) detach(b *book, companyID, id string) Undo {
	_, removed := b.removed[id]
	undo := Undo{CompanyID: companyID, ID: id, walkInPos: -1, removed: removed}

	a, ok := b.byID[id]
	if !ok {
		return undo
	}
	undo.Prior = a.Clone()
	delete(b.byID, id)

	if a.IsWalkIn() {
		for i, wid := range b.walkIns {
			if wid == id {
				undo.walkInPos = i
				b.walkIns = append(b.walkIns[:i], b.walkIns[i+1:]...)
				break
			}
		}
		return undo
	}

	key := bucketKey{professionalID: a.ProfessionalID, day: x.dayKey(*a.StartAt)}
	bucket := b.buckets[key]
	for i, ba := range bucket {
		if ba.ID == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(b.buckets, key)
	} else {
		b.buckets[key] = bucket
	}
	return undo
}

// sortByStart упорядочивает по началу, при равенстве по ID
func sortByStart(appointments []*domain.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		si, sj := *appointments[i].StartAt, *appointments[j].StartAt
		if si.Equal(sj) {
			return appointments[i].ID < appointments[j].ID
		}
		return si.Before(sj)
	})
}
