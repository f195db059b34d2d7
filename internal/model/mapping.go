package model

// FieldConfig describes one local field key in the mapping table.
type FieldConfig struct {
	Visible      bool   `yaml:"visible" json:"visible"`
	FriendlyName string `yaml:"friendly_name" json:"friendlyName"`
}

// ConferenceMapping names the article fields that carry meeting data for
// C-prefixed conference room articles.
type ConferenceMapping struct {
	MeetingName  string `yaml:"meeting_name" json:"meetingName"`
	MeetingTime  string `yaml:"meeting_time" json:"meetingTime"`
	Participants string `yaml:"participants" json:"participants"`
}

// MappingInfo points well-known vendor fields (store number, article id,
// article name, NFC url) at local field keys. Entries here take precedence
// over heuristic lookups; empty entries are skipped.
type MappingInfo struct {
	Store       string `yaml:"store" json:"store"`
	ArticleID   string `yaml:"article_id" json:"articleId"`
	ArticleName string `yaml:"article_name" json:"articleName"`
	NFCURL      string `yaml:"nfc_url" json:"nfcUrl"`
}

// MappingConfig is the user-configured translation table between vendor
// articles and local spaces.
type MappingConfig struct {
	UniqueIDField          string                 `yaml:"unique_id_field" json:"uniqueIdField"`
	Fields                 map[string]FieldConfig `yaml:"fields" json:"fields"`
	Conference             ConferenceMapping      `yaml:"conference" json:"conferenceMapping"`
	MappingInfo            MappingInfo            `yaml:"mapping_info" json:"mappingInfo"`
	GlobalFieldAssignments map[string]string      `yaml:"global_field_assignments" json:"globalFieldAssignments"`
}

// VisibleFields returns the field keys marked visible.
func (c MappingConfig) VisibleFields() []string {
	var keys []string
	for k, f := range c.Fields {
		if f.Visible {
			keys = append(keys, k)
		}
	}
	return keys
}
