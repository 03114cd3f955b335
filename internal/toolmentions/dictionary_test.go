package toolmentions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Excel", CategoryOfficeSuite},
		{"Google Sheets", CategoryOfficeSuite},
		{"Slack", CategoryCommunication},
		{"Microsoft Teams", CategoryCommunication},
		{"Facebook", CategorySocialMedia},
		{"Hootsuite", CategorySocialMediaMgmt},
		{"Jira", CategoryProjectManagement},
		{"Salesforce", CategoryCRM},
		{"QuickBooks", CategoryFinance},
		{"Figma", CategoryDesign},
		{"Premiere Pro", CategoryVideoEditing},
		{"Typeform", CategoryFormsSurveys},
		{"Calendly", CategoryCalendar},
		{"GitHub", CategoryDevelopment},
		{"Dropbox", CategoryFileStorage},
		{"Power BI", CategoryAnalytics},
		{"Shopify", CategoryEcommerce},
		{"Workday", CategoryHR},
		{"Mailchimp", CategoryEmailMarketing},
		{"ChatGPT", CategoryOther},
		{"Miro", CategoryOther},
		{"SomeUnknownTool", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(tt.name))
		})
	}
}

// Ordered rules: the specific fragment must win over the generic one it
// contains.
func TestCategoryFor_RuleOrder(t *testing.T) {
	assert.Equal(t, CategoryCalendar, CategoryFor("Outlook Calendar"))
	assert.Equal(t, CategoryCommunication, CategoryFor("Outlook"))
	assert.Equal(t, CategoryFileStorage, CategoryFor("Dropbox"))
	assert.Equal(t, CategoryOther, CategoryFor("WordPress"))
	assert.Equal(t, CategoryOfficeSuite, CategoryFor("Word"))
}

func TestCompileDictionary(t *testing.T) {
	entries := compileDictionary(DefaultDictionary)
	require.Len(t, entries, len(DefaultDictionary))
	for _, e := range entries {
		assert.NotNil(t, e.re, e.name)
		assert.NotEmpty(t, e.category, e.name)
	}
}

func TestWholeWordMatching(t *testing.T) {
	entries := compileDictionary([]string{"Excel", "Zoom"})

	tests := []struct {
		corpus string
		name   string
		hits   int
	}{
		{"I use Excel daily", "Excel", 1},
		{"excel and EXCEL", "Excel", 2},
		{"I excelled at my job", "Excel", 0},
		{"zoom, Zoom.", "Zoom", 2},
		{"zooming around", "Zoom", 0},
	}

	for _, tt := range tests {
		t.Run(tt.corpus, func(t *testing.T) {
			for _, e := range entries {
				if e.name != tt.name {
					continue
				}
				assert.Len(t, e.re.FindAllStringIndex(tt.corpus, -1), tt.hits)
			}
		})
	}
}
