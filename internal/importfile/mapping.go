package importfile

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/model"
)

// Canonical lead fields a header can map to.
const (
	fieldID           = "id"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldFullName     = "full_name"
	fieldEmail        = "email"
	fieldPhone        = "phone"
	fieldCompany      = "company"
	fieldTitle        = "title"
	fieldLinkedIn     = "linkedin_url"
	fieldIndustry     = "industry"
	fieldLocation     = "location"
	fieldWebsite      = "website"
	fieldSource       = "source"
	fieldStatus       = "status"
	fieldEmailsSent   = "emails_sent"
	fieldLastContact  = "last_contact_date"
	fieldCreatedAt    = "created_at"
	fieldCompleteness = "completeness_score"
)

// headerAliases maps normalized header text to a canonical field.
var headerAliases = map[string]string{
	"id": fieldID, "lead id": fieldID,

	"first name": fieldFirstName, "firstname": fieldFirstName, "first": fieldFirstName, "given name": fieldFirstName,
	"last name": fieldLastName, "lastname": fieldLastName, "last": fieldLastName, "surname": fieldLastName, "family name": fieldLastName,
	"name": fieldFullName, "full name": fieldFullName, "contact name": fieldFullName,

	"email": fieldEmail, "email address": fieldEmail, "e mail": fieldEmail, "work email": fieldEmail,
	"phone": fieldPhone, "phone number": fieldPhone, "mobile": fieldPhone, "mobile phone": fieldPhone,
	"telephone": fieldPhone, "tel": fieldPhone, "work phone": fieldPhone,

	"company": fieldCompany, "company name": fieldCompany, "organization": fieldCompany,
	"organisation": fieldCompany, "account": fieldCompany, "account name": fieldCompany,
	"title": fieldTitle, "job title": fieldTitle, "position": fieldTitle, "role": fieldTitle,
	"linkedin": fieldLinkedIn, "linkedin url": fieldLinkedIn, "linkedin profile": fieldLinkedIn,
	"industry": fieldIndustry,
	"location": fieldLocation, "city": fieldLocation, "region": fieldLocation, "address": fieldLocation,
	"website": fieldWebsite, "url": fieldWebsite, "domain": fieldWebsite, "company website": fieldWebsite, "web": fieldWebsite,
	"source": fieldSource, "lead source": fieldSource,
	"status": fieldStatus, "lead status": fieldStatus,

	"emails sent": fieldEmailsSent, "email count": fieldEmailsSent,
	"last contact": fieldLastContact, "last contact date": fieldLastContact, "last contacted": fieldLastContact,
	"created at": fieldCreatedAt, "created": fieldCreatedAt, "created date": fieldCreatedAt, "date added": fieldCreatedAt,
	"completeness": fieldCompleteness, "completeness score": fieldCompleteness,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// CanonicalField returns the lead field a header maps to, or "".
func CanonicalField(header string) string {
	return headerAliases[normalizeHeader(header)]
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// MapLeads converts parsed rows into leads. Unknown columns are ignored;
// when two headers map to one field the lexically first non-empty wins.
// Rows without an ID get a fresh UUID, rows without a creation date get
// now, and a missing completeness score is computed from the row.
func MapLeads(rows []fingerprint.Row, now time.Time) []model.Lead {
	leads := make([]model.Lead, 0, len(rows))
	for _, row := range rows {
		headers := make([]string, 0, len(row))
		for h := range row {
			headers = append(headers, h)
		}
		sort.Strings(headers)

		fields := make(map[string]string, len(row))
		for _, header := range headers {
			v := row[header]
			f := CanonicalField(header)
			if f == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, set := fields[f]; !set {
				fields[f] = v
			}
		}
		leads = append(leads, leadFromFields(fields, now))
	}
	return leads
}

func leadFromFields(f map[string]string, now time.Time) model.Lead {
	l := model.Lead{
		ID:          f[fieldID],
		FirstName:   f[fieldFirstName],
		LastName:    f[fieldLastName],
		Email:       f[fieldEmail],
		Phone:       f[fieldPhone],
		Company:     f[fieldCompany],
		Title:       f[fieldTitle],
		LinkedInURL: f[fieldLinkedIn],
		Industry:    f[fieldIndustry],
		Location:    f[fieldLocation],
		Website:     f[fieldWebsite],
		Source:      f[fieldSource],
		Status:      model.StatusNew,
		CreatedAt:   now,
	}

	if l.FirstName == "" && l.LastName == "" {
		if first, last, ok := strings.Cut(f[fieldFullName], " "); ok {
			l.FirstName, l.LastName = first, strings.TrimSpace(last)
		} else {
			l.FirstName = first
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if s := f[fieldStatus]; s != "" {
		l.Status = model.ParseStatus(s)
	}
	if n, err := strconv.Atoi(f[fieldEmailsSent]); err == nil && n > 0 {
		l.EmailsSent = n
	}
	if t, ok := parseDate(f[fieldLastContact]); ok {
		l.LastContactDate = &t
	}
	if t, ok := parseDate(f[fieldCreatedAt]); ok {
		l.CreatedAt = t
	}

	if n, err := strconv.Atoi(f[fieldCompleteness]); err == nil {
		l.CompletenessScore = min(max(n, 0), 100)
	} else {
		l.CompletenessScore = model.Completeness(l)
	}
	return l
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
