// view.go — смонтированный дашборд: каталог документов (и справочник
// клиентов для администратора) с загрузкой, фильтром и мутациями.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/zntax/portal-module/internal/apiclient"
	"github.com/bigkaa/zntax/portal-module/internal/catalog"
	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
	"github.com/bigkaa/zntax/portal-module/internal/session"
	"github.com/bigkaa/zntax/portal-module/internal/upload"
)

// Kind — вид дашборда.
type Kind string

// Виды дашбордов.
const (
	KindAdmin  Kind = "admin"
	KindClient Kind = "client"
)

// ParseKind разбирает вид дашборда.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAdmin:
		return KindAdmin, true
	case KindClient:
		return KindClient, true
	}
	return "", false
}

// FetchStatus — исход последней загрузки каталога.
type FetchStatus string

// Статусы загрузки каталога.
const (
	// StatusPending — загрузок ещё не было.
	StatusPending FetchStatus = "pending"
	// StatusLoaded — каталог загружен и не пуст.
	StatusLoaded FetchStatus = "loaded"
	// StatusEmpty — backend подтвердил отсутствие записей.
	StatusEmpty FetchStatus = "empty"
	// StatusStale — последняя загрузка не удалась, показаны прежние данные.
	StatusStale FetchStatus = "stale"
)

// CatalogState — состояние одного каталога дашборда.
type CatalogState struct {
	Status    FetchStatus
	Loading   bool
	Loaded    bool
	Count     int
	Error     string
	UpdatedAt time.Time
}

// ViewStatus — снимок состояния дашборда.
type ViewStatus struct {
	ID        string
	Kind      Kind
	Filter    string
	CreatedAt time.Time
	Documents CatalogState
	// Clients — только для администратора
	Clients *CatalogState
}

// DocumentView — документ с информацией о владельце для отображения.
type DocumentView struct {
	model.DocumentRecord
	// OwnerOrphaned — владелец отсутствует в загруженном справочнике клиентов
	OwnerOrphaned bool
}

// Group — категория сгруппированного представления.
type Group struct {
	Type      model.FileType
	Documents []DocumentView
}

// Backend — операции backend, используемые дашбордом (реализуется apiclient.Client).
type Backend interface {
	ListClients(ctx context.Context, token string) ([]model.ClientRecord, error)
	CreateClient(ctx context.Context, token string, in apiclient.ClientCreate) error
	UpdateClient(ctx context.Context, token, id string, in apiclient.ClientUpdate) error
	DeleteClient(ctx context.Context, token, id string) error
	ListAllFiles(ctx context.Context, token string) ([]model.DocumentRecord, error)
	DeleteFile(ctx context.Context, token, id string) error
	UploadFile(ctx context.Context, token string, req *upload.Request) error
	ListMyFiles(ctx context.Context, token string) ([]model.DocumentRecord, error)
}

// SessionSource — источник текущей сессии (реализуется session.Manager).
type SessionSource interface {
	Current() *session.Session
}

// View — смонтированный дашборд.
// Безопасен для конкурентного использования.
type View struct {
	id        string
	kind      Kind
	createdAt time.Time

	backend  Backend
	sessions SessionSource
	logger   *slog.Logger

	docs      *catalog.Store
	clients   *catalog.Directory
	docSeq    *catalog.Sequencer
	clientSeq *catalog.Sequencer

	// ctx отменяется при размонтировании: прерывает запросы в полёте
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	docState    CatalogState
	clientState CatalogState
}

// newView создаёт дашборд с пустыми каталогами.
func newView(
	parent context.Context,
	id string,
	kind Kind,
	backend Backend,
	sessions SessionSource,
	logger *slog.Logger,
) *View {
	ctx, cancel := context.WithCancel(parent)

	v := &View{
		id:          id,
		kind:        kind,
		createdAt:   time.Now().UTC(),
		backend:     backend,
		sessions:    sessions,
		logger:      logger.With(slog.String("view_id", id), slog.String("kind", string(kind))),
		docs:        catalog.NewStore(),
		docSeq:      catalog.NewSequencer(),
		clientSeq:   catalog.NewSequencer(),
		ctx:         ctx,
		cancel:      cancel,
		docState:    CatalogState{Status: StatusPending},
		clientState: CatalogState{Status: StatusPending},
	}
	if kind == KindAdmin {
		v.clients = catalog.NewDirectory()
	}
	return v
}

// ID — идентификатор дашборда.
func (v *View) ID() string { return v.id }

// Kind — вид дашборда.
func (v *View) Kind() Kind { return v.kind }

// Store — каталог документов.
func (v *View) Store() *catalog.Store { return v.docs }

// Directory — справочник клиентов (nil для клиентского дашборда).
func (v *View) Directory() *catalog.Directory { return v.clients }

// Dispose размонтирует дашборд: запросы в полёте отменяются,
// их ответы отбрасываются.
func (v *View) Dispose() {
	v.cancel()
	v.docSeq.Close()
	v.clientSeq.Close()
}

// Disposed сообщает, размонтирован ли дашборд.
func (v *View) Disposed() bool {
	return v.ctx.Err() != nil
}

// token возвращает токен текущей сессии с проверкой прав на вид дашборда.
func (v *View) token() (string, error) {
	s := v.sessions.Current()
	if s == nil {
		return "", ErrNoSession
	}
	if v.kind == KindAdmin && !s.IsAdmin() {
		return "", ErrForbidden
	}
	return s.Token, nil
}

// requireAdmin проверяет, что операция выполняется на дашборде администратора.
func (v *View) requireAdmin() (string, error) {
	if v.kind != KindAdmin {
		return "", ErrForbidden
	}
	return v.token()
}

// --- Загрузка каталогов ---

// Refresh перезагружает все каталоги дашборда параллельно.
func (v *View) Refresh(ctx context.Context) error {
	if v.kind != KindAdmin {
		return v.RefreshDocuments(ctx)
	}

	var (
		wg         sync.WaitGroup
		docErr     error
		clientsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		docErr = v.RefreshDocuments(ctx)
	}()
	go func() {
		defer wg.Done()
		clientsErr = v.RefreshClients(ctx)
	}()
	wg.Wait()

	return errors.Join(docErr, clientsErr)
}

// refreshAsync запускает Refresh в фоне в контексте дашборда.
func (v *View) refreshAsync(reason string) {
	go func() {
		if err := v.Refresh(v.ctx); err != nil && !v.Disposed() {
			v.logger.Warn("Фоновая загрузка не удалась",
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// RefreshDocuments загружает каталог документов.
// Результат применяется, только если за время запроса не был запущен
// более новый и дашборд не размонтирован. Неуспешный ответ backend
// (success=false) означает пустой каталог; прочие ошибки оставляют
// прежние данные (статус stale).
func (v *View) RefreshDocuments(ctx context.Context) error {
	token, err := v.token()
	if err != nil {
		return err
	}

	seq := v.docSeq.Next()
	v.docs.MarkLoading()

	var records []model.DocumentRecord
	if v.kind == KindAdmin {
		records, err = v.backend.ListAllFiles(ctx, token)
	} else {
		records, err = v.backend.ListMyFiles(ctx, token)
	}

	var result error
	applied := v.docSeq.Apply(seq, func() {
		switch {
		case err == nil:
			v.docs.Load(records)
		case errors.Is(err, apiclient.ErrUnsuccessful):
			v.docs.Load(nil)
		default:
			v.docs.CancelLoading()
			result = fmt.Errorf("загрузка документов: %w", err)
		}
		v.recordOutcome(catalogDocuments, &v.docState, v.docs.Len(), err)
	})
	if !applied {
		v.discarded(catalogDocuments, seq)
		return nil
	}
	return result
}

// RefreshClients загружает справочник клиентов (только администратор).
func (v *View) RefreshClients(ctx context.Context) error {
	token, err := v.requireAdmin()
	if err != nil {
		return err
	}

	seq := v.clientSeq.Next()
	v.clients.MarkLoading()

	records, err := v.backend.ListClients(ctx, token)

	var result error
	applied := v.clientSeq.Apply(seq, func() {
		switch {
		case err == nil:
			v.clients.Load(records)
		case errors.Is(err, apiclient.ErrUnsuccessful):
			v.clients.Load(nil)
		default:
			v.clients.CancelLoading()
			result = fmt.Errorf("загрузка клиентов: %w", err)
		}
		v.recordOutcome(catalogClients, &v.clientState, v.clients.Len(), err)
	})
	if !applied {
		v.discarded(catalogClients, seq)
		return nil
	}
	return result
}

// recordOutcome обновляет состояние каталога и метрики.
func (v *View) recordOutcome(name string, state *CatalogState, count int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	state.UpdatedAt = time.Now().UTC()
	state.Count = count
	switch {
	case err == nil && count > 0:
		state.Status = StatusLoaded
		state.Error = ""
	case err == nil || errors.Is(err, apiclient.ErrUnsuccessful):
		state.Status = StatusEmpty
		state.Error = ""
	default:
		state.Status = StatusStale
		state.Error = err.Error()
	}

	catalogFetchTotal.WithLabelValues(name, string(state.Status)).Inc()
}

// discarded учитывает отброшенный ответ.
func (v *View) discarded(name string, seq uint64) {
	staleResponsesTotal.WithLabelValues(name).Inc()
	v.logger.Debug("Устаревший ответ отброшен",
		slog.String("catalog", name),
		slog.Uint64("seq", seq),
		slog.Bool("disposed", v.Disposed()),
	)
}

// --- Чтение ---

// Status возвращает снимок состояния дашборда.
func (v *View) Status() ViewStatus {
	v.mu.RLock()
	st := ViewStatus{
		ID:        v.id,
		Kind:      v.kind,
		CreatedAt: v.createdAt,
		Documents: v.docState,
	}
	clientState := v.clientState
	v.mu.RUnlock()

	st.Filter = v.docs.Filter()
	st.Documents.Loading = v.docs.Loading()
	st.Documents.Loaded = v.docs.Loaded()
	st.Documents.Count = v.docs.Len()

	if v.clients != nil {
		clientState.Loading = v.clients.Loading()
		clientState.Loaded = v.clients.Loaded()
		clientState.Count = v.clients.Len()
		st.Clients = &clientState
	}
	return st
}

// SetFilter задаёт активный фильтр по финансовому году.
func (v *View) SetFilter(year string) {
	v.docs.SetFilter(year)
}

// Documents возвращает документы, отфильтрованные по году.
// year == nil — используется активный фильтр.
func (v *View) Documents(year *string) []DocumentView {
	q := v.docs.Filter()
	if year != nil {
		q = *year
	}
	return v.project(v.docs.FilterByYear(q))
}

// Groups возвращает четыре категории отфильтрованного каталога.
func (v *View) Groups(year *string) []Group {
	q := v.docs.Filter()
	if year != nil {
		q = *year
	}

	buckets := catalog.GroupByType(v.docs.FilterByYear(q))
	groups := make([]Group, len(buckets))
	for i, b := range buckets {
		groups[i] = Group{Type: b.Type, Documents: v.project(b.Records)}
	}
	return groups
}

// Document возвращает документ по ID.
func (v *View) Document(id string) (DocumentView, error) {
	d, ok := v.docs.Get(id)
	if !ok {
		return DocumentView{}, fmt.Errorf("документ %s: %w", id, ErrNotFound)
	}
	return v.project([]model.DocumentRecord{d})[0], nil
}

// Clients возвращает справочник клиентов (только администратор).
func (v *View) Clients() ([]model.ClientRecord, error) {
	if v.clients == nil {
		return nil, ErrForbidden
	}
	return v.clients.All(), nil
}

// project дополняет документы данными владельца из справочника.
// Владелец без записи в загруженном справочнике помечается как «осиротевший»;
// такие документы не скрываются.
func (v *View) project(records []model.DocumentRecord) []DocumentView {
	out := make([]DocumentView, len(records))
	for i, r := range records {
		out[i] = DocumentView{DocumentRecord: r}
		if v.clients == nil || !v.clients.Loaded() {
			continue
		}

		client, ok := v.clients.Get(r.Owner.ID)
		if r.Owner.ID == "" || !ok {
			out[i].OwnerOrphaned = true
			continue
		}
		if !r.Owner.Populated() {
			out[i].Owner = model.OwnerRef{ID: client.ID, Name: client.Name, Email: client.Email}
		}
	}
	return out
}

// --- Мутации администратора ---
// После успешной мутации затронутый каталог перезагружается целиком.

// CreateClient создаёт клиента и перезагружает справочник.
func (v *View) CreateClient(ctx context.Context, in apiclient.ClientCreate) error {
	token, err := v.requireAdmin()
	if err != nil {
		return err
	}

	in = normalizeClientCreate(in)
	if err := validateStruct(in); err != nil {
		return err
	}

	if err := v.backend.CreateClient(ctx, token, in); err != nil {
		return fmt.Errorf("создание клиента: %w", err)
	}

	v.logger.Info("Клиент создан", slog.String("email", in.Email))
	v.refreshAfterMutation(ctx, catalogClients)
	return nil
}

// UpdateClient изменяет клиента и перезагружает справочник.
func (v *View) UpdateClient(ctx context.Context, id string, in apiclient.ClientUpdate) error {
	token, err := v.requireAdmin()
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return &FieldsError{Fields: []string{"_id"}}
	}

	in = normalizeClientUpdate(in)
	if err := validateStruct(in); err != nil {
		return err
	}

	if err := v.backend.UpdateClient(ctx, token, id, in); err != nil {
		return fmt.Errorf("изменение клиента %s: %w", id, err)
	}

	v.logger.Info("Клиент изменён", slog.String("client_id", id))
	v.refreshAfterMutation(ctx, catalogClients)
	return nil
}

// DeleteClient удаляет клиента и перезагружает справочник.
// Документы клиента остаются в каталоге.
func (v *View) DeleteClient(ctx context.Context, id string) error {
	token, err := v.requireAdmin()
	if err != nil {
		return err
	}

	if err := v.backend.DeleteClient(ctx, token, id); err != nil {
		return fmt.Errorf("удаление клиента %s: %w", id, err)
	}

	v.logger.Info("Клиент удалён", slog.String("client_id", id))
	v.refreshAfterMutation(ctx, catalogClients)
	return nil
}

// DeleteFile удаляет документ и перезагружает каталог.
func (v *View) DeleteFile(ctx context.Context, id string) error {
	token, err := v.requireAdmin()
	if err != nil {
		return err
	}

	if err := v.backend.DeleteFile(ctx, token, id); err != nil {
		return fmt.Errorf("удаление документа %s: %w", id, err)
	}

	v.logger.Info("Документ удалён", slog.String("document_id", id))
	v.refreshAfterMutation(ctx, catalogDocuments)
	return nil
}

// Upload проверяет форму, загружает документ и перезагружает каталог.
// Незаполненная форма — ErrValidation с *upload.IncompleteError в цепочке.
func (v *View) Upload(ctx context.Context, fields upload.Fields) error {
	token, err := v.requireAdmin()
	if err != nil {
		return err
	}

	req, err := upload.NewRequest(fields)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := v.backend.UploadFile(ctx, token, req); err != nil {
		return fmt.Errorf("загрузка документа: %w", err)
	}

	v.logger.Info("Документ загружен",
		slog.String("client_id", req.ClientID()),
		slog.String("file_type", string(req.FileType())),
		slog.String("financial_year", req.FinancialYear()),
	)
	v.refreshAfterMutation(ctx, catalogDocuments)
	return nil
}

// refreshAfterMutation перезагружает каталог после мутации.
// Ошибка перезагрузки отражается в статусе каталога, мутация считается успешной.
func (v *View) refreshAfterMutation(ctx context.Context, name string) {
	var err error
	switch name {
	case catalogClients:
		err = v.RefreshClients(ctx)
	case catalogDocuments:
		err = v.RefreshDocuments(ctx)
	}
	if err != nil {
		v.logger.Warn("Перезагрузка после изменения не удалась",
			slog.String("catalog", name),
			slog.String("error", err.Error()),
		)
	}
}
