package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solum-sync-service/internal/model"
)

func testConfig() model.MappingConfig {
	return model.MappingConfig{
		UniqueIDField: "id",
		Fields: map[string]model.FieldConfig{
			"roomName": {Visible: true, FriendlyName: "Room name"},
			"floor":    {Visible: true, FriendlyName: "Floor"},
			"capacity": {Visible: true, FriendlyName: "Capacity"},
			"internal": {Visible: false},
		},
		Conference: model.ConferenceMapping{
			MeetingName:  "meetingName",
			MeetingTime:  "meetingTime",
			Participants: "participants",
		},
		MappingInfo: model.MappingInfo{
			ArticleID:   "id",
			ArticleName: "roomName",
		},
	}
}

func TestBuildAimsArticle_ArticleIDFromMappedField(t *testing.T) {
	m := NewMapper(testConfig())

	sp := &model.Space{
		ID:   "001",
		Data: map[string]string{"id": "EXT-42", "roomName": "Boardroom"},
	}
	art := m.BuildAimsArticle(sp)
	assert.Equal(t, "EXT-42", art.ArticleID)

	// Empty mapped value falls back to the room's local id.
	sp = &model.Space{
		ID:   "002",
		Data: map[string]string{"id": "", "roomName": "Annex"},
	}
	art = m.BuildAimsArticle(sp)
	assert.Equal(t, "002", art.ArticleID)
}

func TestBuildAimsArticle_ArticleNameFallbacks(t *testing.T) {
	cfg := testConfig()
	cfg.MappingInfo.ArticleName = "" // no mapped articleName
	m := NewMapper(cfg)

	sp := &model.Space{
		ID:   "001",
		Data: map[string]string{"roomName": "Boardroom"},
	}
	assert.Equal(t, "Boardroom", m.BuildAimsArticle(sp).ArticleName)

	sp = &model.Space{ID: "002", Data: map[string]string{}}
	assert.Equal(t, "002", m.BuildAimsArticle(sp).ArticleName)
}

func TestBuildAimsArticle_DualKeying(t *testing.T) {
	m := NewMapper(testConfig())

	sp := &model.Space{
		ID:   "001",
		Data: map[string]string{"roomName": "Boardroom", "floor": "3"},
	}
	art := m.BuildAimsArticle(sp)

	// Fields land at the root and under both nested variants.
	assert.Equal(t, "Boardroom", art.Extra["roomName"])
	assert.Equal(t, "Boardroom", art.Data["roomName"])
	assert.Equal(t, "Boardroom", art.ArticleData["roomName"])
	assert.Equal(t, "3", art.Data["floor"])
	assert.Equal(t, "3", art.ArticleData["floor"])
}

func TestBuildAimsArticle_GlobalAssignmentsSkipEmptyAndExisting(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalFieldAssignments = map[string]string{
		"storeName": "HQ",
		"floor":     "99", // must not clobber the space's own value
		"blank":     "",
	}
	m := NewMapper(cfg)

	sp := &model.Space{ID: "001", Data: map[string]string{"floor": "3"}}
	art := m.BuildAimsArticle(sp)

	assert.Equal(t, "HQ", art.Data["storeName"])
	assert.Equal(t, "3", art.Data["floor"])
	_, ok := art.Data["blank"]
	assert.False(t, ok)
}

func TestRoundTrip_PreservesVisibleFields(t *testing.T) {
	m := NewMapper(testConfig())

	sp := &model.Space{
		ID: "001",
		Data: map[string]string{
			"id":       "001",
			"roomName": "Boardroom",
			"floor":    "3",
			"capacity": "12",
		},
	}

	articles := m.SpacesToArticles([]*model.Space{sp})
	require.Len(t, articles, 1)

	back := m.ArticlesToSpaces(articles)
	require.Len(t, back, 1)

	assert.Equal(t, sp.ID, back[0].ID)
	for key, fc := range testConfig().Fields {
		if !fc.Visible {
			continue
		}
		if v, ok := sp.Data[key]; ok {
			assert.Equal(t, v, back[0].Data[key], "field %s", key)
		}
	}
}

func TestArticlesToSpaces_SkipsConferenceArticles(t *testing.T) {
	m := NewMapper(testConfig())

	articles := []model.Article{
		{ArticleID: "001", ArticleName: "Room 1"},
		{ArticleID: "C001", ArticleName: "Conf A"},
		{ArticleID: "002", ArticleName: "Room 2"},
	}

	spaces := m.ArticlesToSpaces(articles)
	require.Len(t, spaces, 2)
	assert.Equal(t, "001", spaces[0].ID)
	assert.Equal(t, "002", spaces[1].ID)

	rooms := m.ConferenceRooms(articles)
	require.Len(t, rooms, 1)
	assert.Equal(t, "C001", rooms[0].ID)
}

func TestArticleToConferenceRoom_MeetingFields(t *testing.T) {
	m := NewMapper(testConfig())

	a := model.Article{
		ArticleID: "C001",
		Data: map[string]string{
			"meetingName":  "Standup",
			"meetingTime":  "09:00 - 09:15",
			"participants": "ann, bob ,carol",
		},
	}
	room := m.ArticleToConferenceRoom(a)

	assert.True(t, room.HasMeeting)
	assert.Equal(t, "Standup", room.MeetingName)
	assert.Equal(t, "09:00", room.StartTime)
	assert.Equal(t, "09:15", room.EndTime)
	assert.Equal(t, []string{"ann", "bob", "carol"}, room.Participants)
}

func TestConferenceRoomToSpace_RoundTrip(t *testing.T) {
	m := NewMapper(testConfig())

	room := &model.ConferenceRoom{
		ID:           "C001",
		HasMeeting:   true,
		MeetingName:  "Planning",
		StartTime:    "10:00",
		EndTime:      "11:00",
		Participants: []string{"ann", "bob"},
		Data:         map[string]string{"roomName": "Conf A"},
	}

	sp := m.ConferenceRoomToSpace(room)
	art := m.BuildAimsArticle(sp)
	back := m.ArticleToConferenceRoom(art)

	assert.Equal(t, room.MeetingName, back.MeetingName)
	assert.Equal(t, room.StartTime, back.StartTime)
	assert.Equal(t, room.EndTime, back.EndTime)
	assert.Equal(t, room.Participants, back.Participants)
}

func TestMergeArticle_RemoteBaseLocalWins(t *testing.T) {
	remote := model.Article{
		ArticleID:   "001",
		ArticleName: "Old name",
		Data:        map[string]string{"floor": "3", "remoteOnly": "keep"},
		ArticleData: map[string]string{"floor": "3"},
	}
	local := model.Article{
		ArticleID:   "001",
		ArticleName: "New name",
		Data:        map[string]string{"floor": "4", "empty": ""},
	}

	merged := MergeArticle(remote, local)

	assert.Equal(t, "New name", merged.ArticleName)
	assert.Equal(t, "4", merged.Data["floor"])
	assert.Equal(t, "keep", merged.Data["remoteOnly"])
	// Empty local values never erase remote fields.
	_, ok := merged.Data["empty"]
	assert.False(t, ok)

	// Merging the same local twice is idempotent.
	again := MergeArticle(merged, local)
	assert.Equal(t, merged, again)
}

func TestApplyLabels(t *testing.T) {
	spaces := []*model.Space{
		{ID: "001", Data: map[string]string{}},
		{ID: "002", Data: map[string]string{}},
	}
	labels := []model.Label{
		{LabelCode: "ESL-1", ArticleID: "001", TemplateName: "default"},
		{LabelCode: "ESL-2", ArticleID: "001"},
	}

	ApplyLabels(spaces, labels)

	assert.Equal(t, "ESL-1", spaces[0].LabelCode)
	assert.Equal(t, "default", spaces[0].TemplateName)
	assert.Equal(t, []string{"ESL-1", "ESL-2"}, spaces[0].AssignedLabels)
	assert.Empty(t, spaces[1].LabelCode)
}
