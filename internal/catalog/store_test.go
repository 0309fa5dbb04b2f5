package catalog

import (
	"fmt"
	"testing"

	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
)

// doc — короткий конструктор записи для тестов.
func doc(id, year string, ft model.FileType) model.DocumentRecord {
	return model.DocumentRecord{
		ID:            id,
		FileName:      id + ".pdf",
		FileType:      ft,
		FinancialYear: year,
	}
}

// ids собирает идентификаторы в порядке следования.
func ids(records []model.DocumentRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(t *testing.T, got []model.DocumentRecord, want ...string) {
	t.Helper()
	g := ids(got)
	if fmt.Sprint(g) != fmt.Sprint(want) {
		t.Errorf("IDs = %v, ожидалось %v", g, want)
	}
}

// sampleCatalog — каталог с разными годами и типами.
func sampleCatalog() []model.DocumentRecord {
	return []model.DocumentRecord{
		doc("a", "2023-24", model.CertifiedStatement),
		doc("b", "2024-25", model.ProjectReport),
		doc("c", "2024-25", model.CertifiedStatement),
		doc("d", "FY2022-23", model.AuditedFinancialStatement),
		doc("e", "2024-25", "Unknown Type"),
	}
}

// TestStore_FilterByYear_EmptyQueryReturnsAll проверяет, что пустой запрос
// и запрос из пробелов возвращают каталог без изменений.
func TestStore_FilterByYear_EmptyQueryReturnsAll(t *testing.T) {
	catalogs := [][]model.DocumentRecord{
		nil,
		{},
		sampleCatalog(),
	}

	for i, records := range catalogs {
		s := NewStore()
		s.Load(records)
		for _, q := range []string{"", "   ", "\t"} {
			got := s.FilterByYear(q)
			if len(got) != len(records) {
				t.Errorf("каталог %d, запрос %q: len = %d, ожидалось %d", i, q, len(got), len(records))
				continue
			}
			for j := range records {
				if got[j].ID != records[j].ID {
					t.Errorf("каталог %d: порядок нарушен на позиции %d", i, j)
				}
			}
		}
	}
}

// TestStore_FilterByYear_CaseInsensitiveSubstring проверяет подстроковое совпадение.
func TestStore_FilterByYear_CaseInsensitiveSubstring(t *testing.T) {
	s := NewStore()
	s.Load(sampleCatalog())

	equalIDs(t, s.FilterByYear("2024"), "b", "c", "e")
	equalIDs(t, s.FilterByYear("fy"), "d")
	equalIDs(t, s.FilterByYear("  23-24 "), "a")
	equalIDs(t, s.FilterByYear("FY 2024-25"))
}

// TestStore_FilterByYear_Idempotent проверяет идемпотентность фильтра.
func TestStore_FilterByYear_Idempotent(t *testing.T) {
	for _, q := range []string{"", "2024", "fy", "nothing", "-2"} {
		once := FilterByYear(sampleCatalog(), q)
		twice := FilterByYear(once, q)
		if fmt.Sprint(ids(once)) != fmt.Sprint(ids(twice)) {
			t.Errorf("запрос %q: %v != %v", q, ids(once), ids(twice))
		}
	}
}

// TestStore_FilterByYear_DoesNotMutate проверяет, что фильтр не меняет каталог.
func TestStore_FilterByYear_DoesNotMutate(t *testing.T) {
	s := NewStore()
	s.Load(sampleCatalog())

	_ = s.FilterByYear("2024")
	if s.Len() != len(sampleCatalog()) {
		t.Errorf("Len = %d после фильтрации, ожидалось %d", s.Len(), len(sampleCatalog()))
	}
}

// TestStore_LoadEmpty проверяет состояние «подтверждённо пусто».
func TestStore_LoadEmpty(t *testing.T) {
	s := NewStore()
	if s.Loaded() {
		t.Fatal("новый каталог не должен считаться загруженным")
	}

	s.MarkLoading()
	s.Load([]model.DocumentRecord{})

	if !s.Loaded() {
		t.Error("после Load([]) каталог должен считаться загруженным")
	}
	if s.Loading() {
		t.Error("Load должен сбрасывать индикатор загрузки")
	}
	got := s.FilterByYear("anything")
	if got == nil || len(got) != 0 {
		t.Errorf("FilterByYear = %v, ожидался пустой срез", got)
	}
}

// TestStore_LoadReplacesWholesale проверяет замену без слияния.
func TestStore_LoadReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Load(sampleCatalog())

	s.Load([]model.DocumentRecord{doc("z", "2020-21", model.ProjectReport), doc("z", "2020-21", model.ProjectReport)})
	equalIDs(t, s.All(), "z", "z")

	input := []model.DocumentRecord{doc("x", "2021-22", model.ProjectReport)}
	s.Load(input)
	input[0].ID = "mutated"
	equalIDs(t, s.All(), "x")
}

// TestStore_ThreeRecordScenario — сценарий фильтрации и группировки.
func TestStore_ThreeRecordScenario(t *testing.T) {
	s := NewStore()
	s.Load([]model.DocumentRecord{
		doc("1", "2023-24", model.CertifiedStatement),
		doc("2", "2024-25", model.ProjectReport),
		doc("3", "2024-25", model.CertifiedStatement),
	})

	filtered := s.FilterByYear("2024")
	equalIDs(t, filtered, "2", "3")

	buckets := GroupByType(filtered)
	if len(buckets) != 4 {
		t.Fatalf("len(buckets) = %d, ожидалось 4", len(buckets))
	}

	want := map[model.FileType][]string{
		model.AuditedFinancialStatement: {},
		model.CertifiedStatement:        {"3"},
		model.ProjectReport:             {"2"},
		model.BalanceSheetProfitLoss:    {},
	}
	for _, b := range buckets {
		if fmt.Sprint(ids(b.Records)) != fmt.Sprint(want[b.Type]) {
			t.Errorf("корзина %q: %v, ожидалось %v", b.Type, ids(b.Records), want[b.Type])
		}
		if b.Records == nil {
			t.Errorf("корзина %q: nil вместо пустого среза", b.Type)
		}
	}
}

// TestGroupByType_Invariants проверяет четыре корзины в каноническом порядке
// и то, что каждая запись известного типа попадает ровно в одну корзину.
func TestGroupByType_Invariants(t *testing.T) {
	inputs := [][]model.DocumentRecord{
		nil,
		sampleCatalog(),
		{
			doc("p1", "2024-25", model.BalanceSheetProfitLoss),
			doc("p2", "2024-25", model.AuditedFinancialStatement),
			doc("p3", "2024-25", model.BalanceSheetProfitLoss),
		},
	}

	for n, input := range inputs {
		buckets := GroupByType(input)
		if len(buckets) != 4 {
			t.Fatalf("вход %d: len = %d", n, len(buckets))
		}
		for i, ft := range model.FileTypes() {
			if buckets[i].Type != ft {
				t.Errorf("вход %d: корзина %d = %q, ожидалась %q", n, i, buckets[i].Type, ft)
			}
		}

		seen := map[string]int{}
		total := 0
		for _, b := range buckets {
			for _, r := range b.Records {
				seen[r.ID]++
				total++
				if r.FileType != b.Type {
					t.Errorf("вход %d: запись %s в чужой корзине %q", n, r.ID, b.Type)
				}
			}
		}

		known := 0
		for _, r := range input {
			if r.FileType.Valid() {
				known++
				if seen[r.ID] != 1 {
					t.Errorf("вход %d: запись %s встречается %d раз", n, r.ID, seen[r.ID])
				}
			}
		}
		if total != known {
			t.Errorf("вход %d: в корзинах %d записей, ожидалось %d", n, total, known)
		}
	}
}

// TestGroupByType_PreservesInputOrder проверяет порядок внутри корзины.
func TestGroupByType_PreservesInputOrder(t *testing.T) {
	buckets := GroupByType([]model.DocumentRecord{
		doc("3", "2024-25", model.ProjectReport),
		doc("1", "2024-25", model.AuditedFinancialStatement),
		doc("2", "2024-25", model.ProjectReport),
	})
	equalIDs(t, buckets[2].Records, "3", "2")
	equalIDs(t, buckets[0].Records, "1")
}

// TestStore_Upsert проверяет замену на месте и добавление в конец.
func TestStore_Upsert(t *testing.T) {
	s := NewStore()
	s.Load([]model.DocumentRecord{
		doc("a", "2023-24", model.CertifiedStatement),
		doc("b", "2024-25", model.ProjectReport),
		doc("c", "2024-25", model.CertifiedStatement),
	})

	updated := doc("b", "2025-26", model.BalanceSheetProfitLoss)
	s.Upsert(updated)

	equalIDs(t, s.All(), "a", "b", "c")
	got, ok := s.Get("b")
	if !ok || got.FinancialYear != "2025-26" {
		t.Errorf("Get(b) = %+v, %v", got, ok)
	}

	s.Upsert(doc("d", "2024-25", model.ProjectReport))
	equalIDs(t, s.All(), "a", "b", "c", "d")
}

// TestStore_Remove проверяет удаление записи.
func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Load(sampleCatalog())
	before := s.All()

	if !s.Remove("b") {
		t.Fatal("Remove(b) = false")
	}
	if s.Remove("b") {
		t.Error("повторный Remove(b) = true")
	}
	equalIDs(t, s.All(), "a", "c", "d", "e")
	equalIDs(t, before, "a", "b", "c", "d", "e")
}

// TestStore_ActiveFilter проверяет активный фильтр.
func TestStore_ActiveFilter(t *testing.T) {
	s := NewStore()
	s.Load(sampleCatalog())

	equalIDs(t, s.Filtered(), "a", "b", "c", "d", "e")
	s.SetFilter("2023")
	if s.Filter() != "2023" {
		t.Errorf("Filter() = %q", s.Filter())
	}
	// "FY2022-23" не содержит "2023": формат года не нормализуется
	equalIDs(t, s.Filtered(), "a")

	s.SetFilter("fy2022")
	equalIDs(t, s.Filtered(), "d")
}

// TestStore_CancelLoading проверяет, что отмена загрузки не трогает данные.
func TestStore_CancelLoading(t *testing.T) {
	s := NewStore()
	s.Load(sampleCatalog())
	s.MarkLoading()
	s.CancelLoading()

	if s.Loading() {
		t.Error("Loading() = true после CancelLoading")
	}
	if s.Len() != len(sampleCatalog()) {
		t.Errorf("Len = %d", s.Len())
	}
}
