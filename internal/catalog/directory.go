// directory.go — справочник клиентов администратора.
// Используется как список получателей при загрузке и как вкладка «Клиенты».
package catalog

import "github.com/bigkaa/zntax/portal-module/internal/domain/model"

// Directory — справочник клиентов. Контракт тот же, что у Store:
// замена целиком, без слияния. Удаление клиента не затрагивает
// документы со ссылкой на него.
type Directory struct {
	clients collection[model.ClientRecord]
}

// NewDirectory создаёт пустой справочник.
func NewDirectory() *Directory {
	return &Directory{}
}

// Load заменяет справочник целиком.
func (d *Directory) Load(all []model.ClientRecord) {
	d.clients.load(all)
}

// Upsert заменяет клиента с тем же ID на месте или добавляет нового.
func (d *Directory) Upsert(client model.ClientRecord) {
	d.clients.upsert(client)
}

// Remove удаляет клиента по ID.
func (d *Directory) Remove(id string) bool {
	return d.clients.remove(id)
}

// Get возвращает клиента по ID.
func (d *Directory) Get(id string) (model.ClientRecord, bool) {
	return d.clients.get(id)
}

// Has проверяет наличие клиента в справочнике.
func (d *Directory) Has(id string) bool {
	_, ok := d.clients.get(id)
	return ok
}

// All возвращает копию справочника.
func (d *Directory) All() []model.ClientRecord {
	return d.clients.all()
}

// Len — количество клиентов.
func (d *Directory) Len() int {
	return d.clients.len()
}

// MarkLoading выставляет индикатор загрузки.
func (d *Directory) MarkLoading() {
	d.clients.setLoading(true)
}

// CancelLoading сбрасывает индикатор загрузки без изменения данных.
func (d *Directory) CancelLoading() {
	d.clients.setLoading(false)
}

// Loading сообщает, идёт ли загрузка.
func (d *Directory) Loading() bool {
	return d.clients.isLoading()
}

// Loaded сообщает, был ли справочник загружен.
func (d *Directory) Loaded() bool {
	return d.clients.isLoaded()
}
