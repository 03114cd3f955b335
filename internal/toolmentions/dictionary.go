package toolmentions

import (
	"regexp"
	"strings"
)

// DefaultDictionary is the canonical tool vocabulary the aggregator scans
// for. Short forms and vendor-qualified forms are separate entries on
// purpose: a corpus containing "Microsoft Teams" credits both "Teams" and
// "Microsoft Teams", which is accepted double-counting at the raw-count
// level.
var DefaultDictionary = []string{
	// Office suites
	"Excel", "Word", "PowerPoint", "Microsoft Office", "Office 365",
	"Google Docs", "Google Sheets", "Google Slides", "Google Workspace",
	"Notion", "Airtable", "OneNote",

	// Communication
	"Slack", "Teams", "Microsoft Teams", "Zoom", "Google Meet", "Discord",
	"Webex", "Outlook", "Gmail",

	// Social media and its management
	"Facebook", "Instagram", "Twitter", "LinkedIn", "TikTok", "YouTube",
	"Hootsuite", "Buffer", "Sprout Social", "Later",

	// Project management
	"Jira", "Trello", "Asana", "Monday", "ClickUp", "Basecamp", "Linear",
	"Smartsheet", "Wrike",

	// CRM
	"Salesforce", "HubSpot", "Zoho", "Pipedrive", "Zendesk",

	// Finance & accounting
	"QuickBooks", "Xero", "FreshBooks", "Stripe", "PayPal", "Expensify",

	// Design
	"Photoshop", "Illustrator", "InDesign", "Figma", "Canva", "Sketch",
	"Lightroom",

	// Video editing
	"Premiere", "Premiere Pro", "Final Cut", "After Effects", "DaVinci Resolve",
	"CapCut", "iMovie",

	// Forms & surveys
	"Google Forms", "Typeform", "SurveyMonkey", "Qualtrics",

	// Calendar & scheduling
	"Google Calendar", "Calendly", "Doodle", "Outlook Calendar",

	// Development
	"GitHub", "GitLab", "Bitbucket", "VS Code", "Visual Studio", "Docker",
	"Kubernetes", "Jenkins", "Postman", "Terraform", "IntelliJ", "Vim",

	// File storage
	"Dropbox", "Google Drive", "OneDrive", "Box", "SharePoint",

	// Analytics
	"Google Analytics", "Tableau", "Power BI", "Looker", "Mixpanel",
	"Amplitude",

	// E-commerce
	"Shopify", "WooCommerce", "Magento", "Etsy", "Amazon Seller Central",

	// HR & recruiting
	"Workday", "BambooHR", "Greenhouse", "Lever", "ADP", "Gusto",

	// Email marketing
	"Mailchimp", "Constant Contact", "SendGrid", "Klaviyo", "Brevo",

	// Everything else
	"WordPress", "Squarespace", "Wix", "ChatGPT", "Confluence", "Miro",
}

// categoryRule is one ordered substring rule. The first rule whose
// fragment appears in the lowercased tool name wins.
type categoryRule struct {
	fragment string
	category Category
}

// categoryRules is ordered: more specific fragments come before the
// generic ones that would otherwise shadow them ("outlook calendar"
// before "outlook", "premiere" before any office match).
var categoryRules = []categoryRule{
	{"outlook calendar", CategoryCalendar},
	{"google calendar", CategoryCalendar},
	{"calendly", CategoryCalendar},
	{"doodle", CategoryCalendar},

	{"google forms", CategoryFormsSurveys},
	{"typeform", CategoryFormsSurveys},
	{"surveymonkey", CategoryFormsSurveys},
	{"qualtrics", CategoryFormsSurveys},

	{"google analytics", CategoryAnalytics},
	{"tableau", CategoryAnalytics},
	{"power bi", CategoryAnalytics},
	{"looker", CategoryAnalytics},
	{"mixpanel", CategoryAnalytics},
	{"amplitude", CategoryAnalytics},

	{"google drive", CategoryFileStorage},
	{"dropbox", CategoryFileStorage},
	{"onedrive", CategoryFileStorage},
	{"sharepoint", CategoryFileStorage},
	{"box", CategoryFileStorage},

	{"hootsuite", CategorySocialMediaMgmt},
	{"buffer", CategorySocialMediaMgmt},
	{"sprout social", CategorySocialMediaMgmt},
	{"later", CategorySocialMediaMgmt},

	{"facebook", CategorySocialMedia},
	{"instagram", CategorySocialMedia},
	{"twitter", CategorySocialMedia},
	{"linkedin", CategorySocialMedia},
	{"tiktok", CategorySocialMedia},
	{"youtube", CategorySocialMedia},

	{"premiere", CategoryVideoEditing},
	{"final cut", CategoryVideoEditing},
	{"after effects", CategoryVideoEditing},
	{"davinci", CategoryVideoEditing},
	{"capcut", CategoryVideoEditing},
	{"imovie", CategoryVideoEditing},

	{"photoshop", CategoryDesign},
	{"illustrator", CategoryDesign},
	{"indesign", CategoryDesign},
	{"figma", CategoryDesign},
	{"canva", CategoryDesign},
	{"sketch", CategoryDesign},
	{"lightroom", CategoryDesign},

	{"salesforce", CategoryCRM},
	{"hubspot", CategoryCRM},
	{"zoho", CategoryCRM},
	{"pipedrive", CategoryCRM},
	{"zendesk", CategoryCRM},

	{"quickbooks", CategoryFinance},
	{"xero", CategoryFinance},
	{"freshbooks", CategoryFinance},
	{"stripe", CategoryFinance},
	{"paypal", CategoryFinance},
	{"expensify", CategoryFinance},

	{"jira", CategoryProjectManagement},
	{"trello", CategoryProjectManagement},
	{"asana", CategoryProjectManagement},
	{"monday", CategoryProjectManagement},
	{"clickup", CategoryProjectManagement},
	{"basecamp", CategoryProjectManagement},
	{"linear", CategoryProjectManagement},
	{"smartsheet", CategoryProjectManagement},
	{"wrike", CategoryProjectManagement},

	{"mailchimp", CategoryEmailMarketing},
	{"constant contact", CategoryEmailMarketing},
	{"sendgrid", CategoryEmailMarketing},
	{"klaviyo", CategoryEmailMarketing},
	{"brevo", CategoryEmailMarketing},

	{"workday", CategoryHR},
	{"bamboohr", CategoryHR},
	{"greenhouse", CategoryHR},
	{"lever", CategoryHR},
	{"adp", CategoryHR},
	{"gusto", CategoryHR},

	{"shopify", CategoryEcommerce},
	{"woocommerce", CategoryEcommerce},
	{"magento", CategoryEcommerce},
	{"etsy", CategoryEcommerce},
	{"amazon seller", CategoryEcommerce},

	{"github", CategoryDevelopment},
	{"gitlab", CategoryDevelopment},
	{"bitbucket", CategoryDevelopment},
	{"vs code", CategoryDevelopment},
	{"visual studio", CategoryDevelopment},
	{"docker", CategoryDevelopment},
	{"kubernetes", CategoryDevelopment},
	{"jenkins", CategoryDevelopment},
	{"postman", CategoryDevelopment},
	{"terraform", CategoryDevelopment},
	{"intellij", CategoryDevelopment},
	{"vim", CategoryDevelopment},

	{"slack", CategoryCommunication},
	{"teams", CategoryCommunication},
	{"zoom", CategoryCommunication},
	{"google meet", CategoryCommunication},
	{"discord", CategoryCommunication},
	{"webex", CategoryCommunication},
	{"outlook", CategoryCommunication},
	{"gmail", CategoryCommunication},

	// "wordpress" would otherwise fall into the office-suite "word" rule.
	{"wordpress", CategoryOther},

	{"excel", CategoryOfficeSuite},
	{"word", CategoryOfficeSuite},
	{"powerpoint", CategoryOfficeSuite},
	{"office", CategoryOfficeSuite},
	{"google docs", CategoryOfficeSuite},
	{"google sheets", CategoryOfficeSuite},
	{"google slides", CategoryOfficeSuite},
	{"google workspace", CategoryOfficeSuite},
	{"notion", CategoryOfficeSuite},
	{"airtable", CategoryOfficeSuite},
	{"onenote", CategoryOfficeSuite},
}

// CategoryFor maps a canonical tool name to its category via the ordered
// substring rules; unmatched names fall through to "other".
func CategoryFor(name string) Category {
	lower := strings.ToLower(name)
	for _, r := range categoryRules {
		if strings.Contains(lower, r.fragment) {
			return r.category
		}
	}
	return CategoryOther
}

// entry is a dictionary name with its pre-compiled matcher.
type entry struct {
	name     string
	category Category
	re       *regexp.Regexp
}

// compileDictionary builds case-insensitive whole-word matchers for the
// given names. Names that fail to compile are skipped.
func compileDictionary(names []string) []entry {
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			name:     name,
			category: CategoryFor(name),
			re:       re,
		})
	}
	return entries
}
