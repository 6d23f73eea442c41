// Package pagination строит страницы списков со ссылками на соседние страницы.
//
// Ссылка - путь текущего запроса с параметрами PageNumber и PageSize,
// например "/dummies?PageNumber=3&PageSize=20". Ссылки строятся только для GET.
package pagination

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Имена query параметров.
const (
	PageNumberParam = "PageNumber"
	PageSizeParam   = "PageSize"
)

// Значения по умолчанию для ParseOptions.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

// ErrNotGetRequest - ссылки на страницы имеют смысл только для GET.
var ErrNotGetRequest = errors.New("page links are only available for GET requests")

// Options - запрошенная страница.
type Options struct {
	PageNumber int
	PageSize   int
}

// Offset - сколько элементов пропустить.
func (o Options) Offset() int {
	return (o.PageNumber - 1) * o.PageSize
}

// ParseOptions читает PageNumber и PageSize из query.
// Некорректные значения заменяются значениями по умолчанию, размер ограничен MaxPageSize.
func ParseOptions(c *gin.Context) Options {
	opts := Options{PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}

	if n, err := strconv.Atoi(c.Query(PageNumberParam)); err == nil && n > 0 {
		opts.PageNumber = n
	}
	if s, err := strconv.Atoi(c.Query(PageSizeParam)); err == nil && s > 0 {
		opts.PageSize = min(s, MaxPageSize)
	}
	return opts
}

// Page - одна страница результата.
type Page[T any] struct {
	Items      []T
	PageNumber int
	PageSize   int
	TotalItems int
}

// NewPage собирает страницу для opts.
func NewPage[T any](items []T, opts Options, totalItems int) Page[T] {
	return Page[T]{
		Items:      items,
		PageNumber: opts.PageNumber,
		PageSize:   opts.PageSize,
		TotalItems: totalItems,
	}
}

// TotalPages - количество страниц, 0 для пустого результата.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.TotalItems <= 0 {
		return 0
	}
	return (p.TotalItems + p.PageSize - 1) / p.PageSize
}

// HasPrevious - есть ли страница перед текущей.
func (p Page[T]) HasPrevious() bool {
	return p.PageNumber > 1
}

// HasNext - есть ли страница после текущей.
func (p Page[T]) HasNext() bool {
	return p.PageNumber < p.TotalPages()
}

// LinkedPage - страница со ссылками, так она уходит клиенту.
type LinkedPage[T any] struct {
	Items      []T     `json:"items"`
	PageNumber int     `json:"page_number"`
	PageSize   int     `json:"page_size"`
	TotalItems int     `json:"total_items"`
	TotalPages int     `json:"total_pages"`
	Previous   *string `json:"previous_page"`
	Next       *string `json:"next_page"`
}

// Link добавляет к странице ссылки на предыдущую и следующую страницы.
// Отсутствующая ссылка - nil (null в JSON).
func Link[T any](c *gin.Context, page Page[T]) (LinkedPage[T], error) {
	if c.Request.Method != http.MethodGet {
		return LinkedPage[T]{}, ErrNotGetRequest
	}

	items := page.Items
	if items == nil {
		items = []T{}
	}

	linked := LinkedPage[T]{
		Items:      items,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages(),
	}
	if page.HasPrevious() {
		link := pageLink(c.Request.URL.Path, page.PageNumber-1, page.PageSize)
		linked.Previous = &link
	}
	if page.HasNext() {
		link := pageLink(c.Request.URL.Path, page.PageNumber+1, page.PageSize)
		linked.Next = &link
	}
	return linked, nil
}

func pageLink(path string, number, size int) string {
	query := url.Values{}
	query.Set(PageNumberParam, strconv.Itoa(number))
	query.Set(PageSizeParam, strconv.Itoa(size))
	return path + "?" + query.Encode()
}
