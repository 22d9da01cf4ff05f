package account

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, size, total int
		want              Pagination
	}{
		{1, 10, 25, Pagination{CurrentPage: 1, PageSize: 10, TotalPages: 3, TotalCount: 25, HasNext: true, HasPrev: false}},
		{3, 10, 25, Pagination{CurrentPage: 3, PageSize: 10, TotalPages: 3, TotalCount: 25, HasNext: false, HasPrev: true}},
		{1, 10, 0, Pagination{CurrentPage: 1, PageSize: 10, TotalPages: 0, TotalCount: 0}},
		{2, 5, 10, Pagination{CurrentPage: 2, PageSize: 5, TotalPages: 2, TotalCount: 10, HasPrev: true}},
	}

	for _, tt := range tests {
		if got := NewPagination(tt.page, tt.size, tt.total); got != tt.want {
			t.Fatalf("NewPagination(%d,%d,%d) = %+v want %+v", tt.page, tt.size, tt.total, got, tt.want)
		}
	}
}

func TestListQueryValidate(t *testing.T) {
	nurse := Role("NURSE")
	empty := "   "

	tests := []struct {
		name  string
		q     ListQuery
		field string
	}{
		{"zero page", ListQuery{Page: 0, PageSize: 10}, "page"},
		{"limit too big", ListQuery{Page: 1, PageSize: 101}, "limit"},
		{"limit zero", ListQuery{Page: 1, PageSize: 0}, "limit"},
		{"unknown role", ListQuery{Page: 1, PageSize: 10, Filter: Filter{Role: &nurse}}, "role"},
		{"blank search", ListQuery{Page: 1, PageSize: 10, Filter: Filter{Search: &empty}}, "search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if _, ok := fieldsOf(err)[tt.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.field, err)
			}
		})
	}

	if err := (ListQuery{Page: 2, PageSize: 100}).Validate(); err != nil {
		t.Fatalf("valid query rejected: %v", err)
	}
	if off := (ListQuery{Page: 3, PageSize: 10}).Offset(); off != 20 {
		t.Fatalf("offset: got %d want 20", off)
	}
}

func TestFilterMatches(t *testing.T) {
	durand := Account{FirstName: "Marie", LastName: "Durand", Email: "marie@example.com", IsActive: true, Profile: PatientProfile{}}
	lab := Account{FirstName: "Paul", LastName: "Martin", Email: "contact@durandlabs.fr", IsActive: false, Profile: LabProfile{Name: "Bio"}}
	hosp := Account{FirstName: "Luc", LastName: "Petit", Email: "luc@chu.fr", IsActive: true, Profile: HospitalProfile{Name: "Clinique DURAND"}}
	other := Account{FirstName: "Zoe", LastName: "Blanc", Email: "zoe@example.com", IsActive: true, Profile: PatientProfile{}}

	search := "durand"
	f := Filter{Search: &search}

	for _, a := range []Account{durand, lab, hosp} {
		if !f.Matches(a) {
			t.Fatalf("expected %s to match", a.Email)
		}
	}
	if f.Matches(other) {
		t.Fatalf("zoe should not match")
	}

	active := true
	patient := RolePatient
	f = Filter{Search: &search, IsActive: &active, Role: &patient}
	if !f.Matches(durand) || f.Matches(lab) || f.Matches(hosp) {
		t.Fatalf("conditions should be combined")
	}
}
