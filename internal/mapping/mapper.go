package mapping

import (
	"strings"

	"solum-sync-service/internal/model"
)

// Mapper translates between vendor articles and local spaces using a
// user-configured mapping table.
//
// Per-field resolution order when reading an article:
//  1. explicit root-level field
//  2. nested data / articleData field
//  3. mappingInfo-driven fallback to well-known vendor fields
//  4. otherwise the field is omitted
//
// MappingInfo entries, when set, take precedence over heuristic lookups.
// Empty mapping values are skipped, never written as zero values.
type Mapper struct {
	cfg model.MappingConfig
}

func NewMapper(cfg model.MappingConfig) *Mapper {
	return &Mapper{cfg: cfg}
}

func (m *Mapper) Config() model.MappingConfig {
	return m.cfg
}

// ArticleToSpace maps one vendor article to a local space. Label assignment
// is overlaid separately by the caller (see ApplyLabels).
func (m *Mapper) ArticleToSpace(a model.Article) *model.Space {
	sp := &model.Space{
		ID:   m.articleLocalID(a),
		Data: make(map[string]string),
	}

	for key, fc := range m.cfg.Fields {
		if !fc.Visible {
			continue
		}
		if v, ok := a.Field(key); ok {
			sp.Data[key] = v
		}
	}

	// Well-known vendor fields land under their mapped local keys.
	if k := m.cfg.MappingInfo.ArticleName; k != "" && a.ArticleName != "" {
		sp.Data[k] = a.ArticleName
	}
	if k := m.cfg.MappingInfo.NFCURL; k != "" && a.NFCURL != "" {
		sp.Data[k] = a.NFCURL
	}

	return sp
}

// ArticlesToSpaces maps a fetched article set to spaces, skipping articles
// whose id is reserved for conference rooms.
func (m *Mapper) ArticlesToSpaces(articles []model.Article) []*model.Space {
	spaces := make([]*model.Space, 0, len(articles))
	for _, a := range articles {
		if model.IsConferenceID(a.ArticleID) {
			continue
		}
		spaces = append(spaces, m.ArticleToSpace(a))
	}
	return spaces
}

// ArticleToConferenceRoom maps a C-prefixed article using the conference
// field mapping.
func (m *Mapper) ArticleToConferenceRoom(a model.Article) *model.ConferenceRoom {
	room := &model.ConferenceRoom{
		ID:           a.ArticleID,
		Participants: []string{},
		Data:         make(map[string]string),
	}

	cm := m.cfg.Conference
	if cm.MeetingName != "" {
		if v, ok := a.Field(cm.MeetingName); ok {
			room.MeetingName = v
			room.HasMeeting = true
		}
	}
	if cm.MeetingTime != "" {
		if v, ok := a.Field(cm.MeetingTime); ok {
			start, end := splitMeetingTime(v)
			room.StartTime = start
			room.EndTime = end
		}
	}
	if cm.Participants != "" {
		if v, ok := a.Field(cm.Participants); ok {
			room.Participants = splitParticipants(v)
		}
	}

	for key, fc := range m.cfg.Fields {
		if !fc.Visible {
			continue
		}
		if v, ok := a.Field(key); ok {
			room.Data[key] = v
		}
	}

	return room
}

// ConferenceRooms extracts the conference rooms from an article set.
func (m *Mapper) ConferenceRooms(articles []model.Article) []*model.ConferenceRoom {
	var rooms []*model.ConferenceRoom
	for _, a := range articles {
		if model.IsConferenceID(a.ArticleID) {
			rooms = append(rooms, m.ArticleToConferenceRoom(a))
		}
	}
	return rooms
}

// BuildAimsArticle maps one local space to an outgoing article.
//
// articleId: the mappingInfo.articleId-named field when it resolves to a
// non-empty value in the space data, else the space's own id.
// articleName: the mapped articleName field, else data["roomName"], else id.
func (m *Mapper) BuildAimsArticle(sp *model.Space) model.Article {
	a := model.Article{
		ArticleID:   sp.ID,
		Data:        make(map[string]string),
		ArticleData: make(map[string]string),
		Extra:       make(map[string]string),
	}

	if k := m.cfg.MappingInfo.ArticleID; k != "" {
		if v := sp.Data[k]; v != "" {
			a.ArticleID = v
		}
	}

	if k := m.cfg.MappingInfo.ArticleName; k != "" && sp.Data[k] != "" {
		a.ArticleName = sp.Data[k]
	} else if v := sp.Data["roomName"]; v != "" {
		a.ArticleName = v
	} else {
		a.ArticleName = sp.ID
	}

	if k := m.cfg.MappingInfo.NFCURL; k != "" {
		if v := sp.Data[k]; v != "" {
			a.NFCURL = v
		}
	}
	if k := m.cfg.MappingInfo.Store; k != "" {
		if v := sp.Data[k]; v != "" {
			a.Extra[k] = v
		}
	}

	// Local data is flattened to the article root and re-nested under both
	// "data" and "articleData": the vendor exposes two API variants that
	// disagree on where custom fields live.
	for key, val := range sp.Data {
		if val == "" {
			continue
		}
		a.Extra[key] = val
		a.Data[key] = val
		a.ArticleData[key] = val
	}

	for key, val := range m.cfg.GlobalFieldAssignments {
		if val == "" {
			continue
		}
		if _, ok := a.Data[key]; ok {
			continue
		}
		a.Extra[key] = val
		a.Data[key] = val
		a.ArticleData[key] = val
	}

	return a
}

// SpacesToArticles maps local spaces to outgoing articles.
func (m *Mapper) SpacesToArticles(spaces []*model.Space) []model.Article {
	articles := make([]model.Article, 0, len(spaces))
	for _, sp := range spaces {
		articles = append(articles, m.BuildAimsArticle(sp))
	}
	return articles
}

// ConferenceRoomToSpace flattens a conference room into the space shape used
// by the upload path. Meeting fields are written under the conference
// mapping's field keys so C-prefixed articles round-trip.
func (m *Mapper) ConferenceRoomToSpace(room *model.ConferenceRoom) *model.Space {
	sp := &model.Space{
		ID:        room.ID,
		LabelCode: room.LabelCode,
		Data:      make(map[string]string, len(room.Data)+3),
	}
	for k, v := range room.Data {
		sp.Data[k] = v
	}

	cm := m.cfg.Conference
	if room.HasMeeting {
		if cm.MeetingName != "" && room.MeetingName != "" {
			sp.Data[cm.MeetingName] = room.MeetingName
		}
		if cm.MeetingTime != "" && room.StartTime != "" {
			sp.Data[cm.MeetingTime] = room.StartTime + "-" + room.EndTime
		}
		if cm.Participants != "" && len(room.Participants) > 0 {
			sp.Data[cm.Participants] = strings.Join(room.Participants, ",")
		}
	}

	return sp
}

// MergeArticle overlays the local article onto the remote one: remote is
// the base, every non-empty local field wins. Fields present only remotely
// survive untouched. This is the safe-upload merge rule.
func MergeArticle(remote, local model.Article) model.Article {
	merged := remote.Clone()

	if local.ArticleName != "" {
		merged.ArticleName = local.ArticleName
	}
	if local.NFCURL != "" {
		merged.NFCURL = local.NFCURL
	}
	merged.Extra = overlay(merged.Extra, local.Extra)
	merged.Data = overlay(merged.Data, local.Data)
	merged.ArticleData = overlay(merged.ArticleData, local.ArticleData)

	return merged
}

func overlay(base, local map[string]string) map[string]string {
	if len(local) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(local))
	}
	for k, v := range local {
		if v == "" {
			continue
		}
		base[k] = v
	}
	return base
}

// ApplyLabels overlays label assignments onto mapped spaces.
func ApplyLabels(spaces []*model.Space, labels []model.Label) {
	byArticle := make(map[string][]model.Label)
	for _, l := range labels {
		if l.ArticleID != "" {
			byArticle[l.ArticleID] = append(byArticle[l.ArticleID], l)
		}
	}

	for _, sp := range spaces {
		assigned, ok := byArticle[sp.ID]
		if !ok {
			continue
		}
		sp.LabelCode = assigned[0].LabelCode
		if assigned[0].TemplateName != "" {
			sp.TemplateName = assigned[0].TemplateName
		}
		sp.AssignedLabels = sp.AssignedLabels[:0]
		for _, l := range assigned {
			sp.AssignedLabels = append(sp.AssignedLabels, l.LabelCode)
		}
	}
}

// articleLocalID resolves the space id for an incoming article: the
// configured unique-id field when it resolves, else the vendor articleId.
func (m *Mapper) articleLocalID(a model.Article) string {
	if m.cfg.UniqueIDField != "" {
		if v, ok := a.Field(m.cfg.UniqueIDField); ok {
			return v
		}
	}
	return a.ArticleID
}

func splitMeetingTime(v string) (start, end string) {
	parts := strings.SplitN(v, "-", 2)
	start = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		end = strings.TrimSpace(parts[1])
	}
	return start, end
}

func splitParticipants(v string) []string {
	if v == "" {
		return []string{}
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
