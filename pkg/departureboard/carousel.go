package departureboard

const PageSize = 3

type Page struct {
	Index int            `json:"index" groups:"basic,full"`
	Total int            `json:"total" groups:"basic,full"`
	Items []Announcement `json:"items" groups:"basic,full"`
}

// Paginate cuts out page index. An index outside of the available pages falls
// back to the first page.
func Paginate(announcements []Announcement, index int) Page {
	total := (len(announcements) + PageSize - 1) / PageSize

	if index < 0 || index >= total {
		index = 0
	}

	page := Page{
		Index: index,
		Total: total,
		Items: []Announcement{},
	}

	if total == 0 {
		return page
	}

	start := index * PageSize
	end := start + PageSize
	if end > len(announcements) {
		end = len(announcements)
	}
	page.Items = announcements[start:end]

	return page
}

// Carousel remembers which announcement page is on screen
type Carousel struct {
	page  int
	total int
}

func (c *Carousel) Compile(announcements []Announcement) Page {
	page := Paginate(announcements, c.page)
	c.page = page.Index
	c.total = page.Total

	return page
}

func (c *Carousel) Advance() {
	if c.total == 0 {
		c.page = 0
		return
	}

	c.page = (c.page + 1) % c.total
}

func (c *Carousel) Current() int {
	return c.page
}
