// Пакет model — доменные модели портала документов ZN Tax.
// file_type.go — закрытое перечисление типов документов.
package model

import "strings"

// FileType — категория документа. Значение совпадает с меткой,
// которую backend хранит в поле fileType.
type FileType string

// Типы документов в каноническом порядке отображения.
const (
	AuditedFinancialStatement FileType = "Audited Financial Statement"
	CertifiedStatement        FileType = "Certified Statement"
	ProjectReport             FileType = "Project Report"
	BalanceSheetProfitLoss    FileType = "Balance Sheet P & L"
)

// fileTypeOrder — канонический порядок категорий.
var fileTypeOrder = [...]FileType{
	AuditedFinancialStatement,
	CertifiedStatement,
	ProjectReport,
	BalanceSheetProfitLoss,
}

// fileTypeCodes — машинные идентификаторы категорий (для API и query-параметров).
var fileTypeCodes = map[FileType]string{
	AuditedFinancialStatement: "AuditedFinancialStatement",
	CertifiedStatement:        "CertifiedStatement",
	ProjectReport:             "ProjectReport",
	BalanceSheetProfitLoss:    "BalanceSheetProfitLoss",
}

// FileTypes возвращает все категории в каноническом порядке.
// Возвращается копия — вызывающий код может её изменять.
func FileTypes() []FileType {
	out := make([]FileType, len(fileTypeOrder))
	copy(out, fileTypeOrder[:])
	return out
}

// ParseFileType принимает метку backend или машинный идентификатор
// (без учёта регистра). Возвращает false для значения вне перечисления.
func ParseFileType(s string) (FileType, bool) {
	s = strings.TrimSpace(s)
	for _, ft := range fileTypeOrder {
		if strings.EqualFold(s, string(ft)) || strings.EqualFold(s, fileTypeCodes[ft]) {
			return ft, true
		}
	}
	return "", false
}

// Valid проверяет принадлежность значения перечислению.
func (ft FileType) Valid() bool {
	_, ok := fileTypeCodes[ft]
	return ok
}

// Code возвращает машинный идентификатор категории
// (пустая строка для неизвестного типа).
func (ft FileType) Code() string {
	return fileTypeCodes[ft]
}

// Index возвращает позицию категории в каноническом порядке или -1.
func (ft FileType) Index() int {
	for i, t := range fileTypeOrder {
		if t == ft {
			return i
		}
	}
	return -1
}
