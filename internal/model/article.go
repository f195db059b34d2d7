package model

import (
	"encoding/json"
	"fmt"
)

// Article is the vendor's flat record for a labeled space. The AIMS API
// exposes two payload variants: one nests custom fields under "data", the
// other under "articleData". Incoming payloads may use either, so both are
// decoded; outgoing payloads write both (see mapping.SpacesToArticles).
// Unknown root-level string fields are kept in Extra and round-tripped.
type Article struct {
	ArticleID   string
	ArticleName string
	NFCURL      string
	Data        map[string]string
	ArticleData map[string]string
	Extra       map[string]string
}

// Label is a physical ESL tag as reported by the vendor.
type Label struct {
	LabelCode    string `json:"labelCode"`
	ArticleID    string `json:"articleId"`
	TemplateName string `json:"templateName,omitempty"`
	Status       string `json:"status,omitempty"`
}

func (a Article) MarshalJSON() ([]byte, error) {
	root := make(map[string]interface{}, len(a.Extra)+5)
	for k, v := range a.Extra {
		root[k] = v
	}
	root["articleId"] = a.ArticleID
	root["articleName"] = a.ArticleName
	if a.NFCURL != "" {
		root["nfcUrl"] = a.NFCURL
	}
	if a.Data != nil {
		root["data"] = a.Data
	}
	if a.ArticleData != nil {
		root["articleData"] = a.ArticleData
	}
	return json.Marshal(root)
}

func (a *Article) UnmarshalJSON(b []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(b, &root); err != nil {
		return err
	}

	out := Article{Extra: make(map[string]string)}
	for key, raw := range root {
		switch key {
		case "articleId":
			if err := json.Unmarshal(raw, &out.ArticleID); err != nil {
				return fmt.Errorf("article: bad articleId: %w", err)
			}
		case "articleName":
			if err := json.Unmarshal(raw, &out.ArticleName); err != nil {
				return fmt.Errorf("article: bad articleName: %w", err)
			}
		case "nfcUrl":
			if err := json.Unmarshal(raw, &out.NFCURL); err != nil {
				return fmt.Errorf("article: bad nfcUrl: %w", err)
			}
		case "data":
			if err := json.Unmarshal(raw, &out.Data); err != nil {
				return fmt.Errorf("article: bad data: %w", err)
			}
		case "articleData":
			if err := json.Unmarshal(raw, &out.ArticleData); err != nil {
				return fmt.Errorf("article: bad articleData: %w", err)
			}
		default:
			// Vendor payloads mix strings and numbers at the root. Keep
			// whatever stringifies cleanly, drop structured values.
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				out.Extra[key] = s
				continue
			}
			var n json.Number
			if err := json.Unmarshal(raw, &n); err == nil {
				out.Extra[key] = n.String()
			}
		}
	}

	*a = out
	return nil
}

// Field looks a key up at the article root first, then under the nested
// data / articleData maps, in that order.
func (a Article) Field(key string) (string, bool) {
	if v, ok := a.Extra[key]; ok && v != "" {
		return v, true
	}
	if v, ok := a.Data[key]; ok && v != "" {
		return v, true
	}
	if v, ok := a.ArticleData[key]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Clone returns a deep copy of the article.
func (a Article) Clone() Article {
	cp := a
	cp.Data = cloneMap(a.Data)
	cp.ArticleData = cloneMap(a.ArticleData)
	cp.Extra = cloneMap(a.Extra)
	return cp
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
