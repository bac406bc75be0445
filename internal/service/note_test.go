// File: internal/service/note_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noteListingFixture = `<html><body>
	<div class="note-card"><a href="/explore/65f1b2c3000000000101aaaa">晨跑路线
记录</a></div>
	<div class="note-card"><a href="/explore/65f1b2c3000000000101bbbb">手冲教程</a></div>
</body></html>`

func TestParseNoteListing(t *testing.T) {
	notes, err := parseNoteListing(noteListingFixture)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "65f1b2c3000000000101aaaa", notes[0].ID)
	assert.Equal(t, "晨跑路线", notes[0].Title, "only the first text line is the title")
	assert.Equal(t, "65f1b2c3000000000101bbbb", notes[1].ID)
}

func managerPage() *fakePage {
	page := newFakePage()
	page.html = noteListingFixture
	page.visible[".note-card"] = true
	page.visible[".d-modal .d-button--danger"] = true
	return page
}

func TestListNotes(t *testing.T) {
	page := managerPage()
	svc := NewNoteService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.ListNotes(context.Background(), 10, "")
	require.True(t, res.Success, "list failed: %s", res.Message)
	data := res.Data.(NoteListData)
	assert.Equal(t, 2, data.Count)

	require.NotEmpty(t, page.navigated)
	assert.Contains(t, page.navigated[0], "note-manager")
}

func TestListNotes_EmptyAccount(t *testing.T) {
	page := newFakePage()
	svc := NewNoteService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.ListNotes(context.Background(), 10, "")
	require.True(t, res.Success, "an empty account is a valid answer")
	data := res.Data.(NoteListData)
	assert.Zero(t, data.Count)
}

func TestDeleteNote_SelectorValidation(t *testing.T) {
	b := noBrowser()
	svc := NewNoteService(testEnv(t, b))
	ctx := context.Background()

	res := svc.DeleteNote(ctx, "", false, "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindDeleteFailed), res.Code)

	res = svc.DeleteNote(ctx, "65f1b2c3000000000101aaaa", true, "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindDeleteFailed), res.Code)

	assert.Zero(t, b.openCount(), "selector validation must precede any browser work")
}

func TestDeleteNote_Latest(t *testing.T) {
	page := managerPage()
	svc := NewNoteService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.DeleteNote(context.Background(), "", true, "")
	require.True(t, res.Success, "delete failed: %s", res.Message)
	data := res.Data.(DeleteData)
	assert.Equal(t, "65f1b2c3000000000101aaaa", data.NoteID, "latest means the first listed note")
	assert.Contains(t, page.clicked, ".d-modal .d-button--danger", "the confirmation dialog must be accepted")
}

func TestDeleteNote_ByID(t *testing.T) {
	page := managerPage()
	svc := NewNoteService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.DeleteNote(context.Background(), "65f1b2c3000000000101bbbb", false, "")
	require.True(t, res.Success, "delete failed: %s", res.Message)
	data := res.Data.(DeleteData)
	assert.Equal(t, "65f1b2c3000000000101bbbb", data.NoteID)
}

func TestDeleteNote_UnknownID(t *testing.T) {
	page := managerPage()
	svc := NewNoteService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.DeleteNote(context.Background(), "ffffffffffffffffffffffff", false, "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindDeleteFailed), res.Code)
}

func TestDeleteNote_EmptyAccount(t *testing.T) {
	page := newFakePage()
	svc := NewNoteService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.DeleteNote(context.Background(), "", true, "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindDeleteFailed), res.Code)
}
