package channelsettings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plextube/internal/database"
	"plextube/internal/domain/consts"
	"plextube/internal/models"
	"plextube/internal/repo"
)

type fakeRefresher struct {
	called chan struct{}
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{called: make(chan struct{}, 1)}
}

func (f *fakeRefresher) Configured() bool { return true }

func (f *fakeRefresher) RefreshLibrary(context.Context) error {
	select {
	case f.called <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeRefresher) waitCalled(t *testing.T) {
	t.Helper()
	select {
	case <-f.called:
	case <-time.After(2 * time.Second):
		t.Fatal("library refresh was never triggered")
	}
}

type testEnv struct {
	svc     *Service
	stores  *repo.Stores
	plex    *fakeRefresher
	baseDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stores := repo.InitStores(db.DB)
	plex := newFakeRefresher()
	baseDir := t.TempDir()

	svc := NewService(stores.Channels, stores.Videos, stores.Downloads, plex, Config{
		DownloadDir: baseDir,
	})
	return &testEnv{svc: svc, stores: stores, plex: plex, baseDir: baseDir}
}

// seedChannel creates a channel at the library root with one downloaded
// video on disk.
func (e *testEnv) seedChannel(t *testing.T, channelID, folderName string) string {
	t.Helper()

	if _, err := e.stores.Channels.AddChannel(&models.Channel{
		ChannelID:  channelID,
		Uploader:   folderName,
		FolderName: folderName,
		SubFolder:  models.Subfolder{Kind: models.SubfolderRoot},
	}); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(e.baseDir, folderName)
	videoPath := filepath.Join(dir, "First Video [aaaaaaaaaaa].mp4")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.stores.Videos.AddVideo(&models.Video{
		YoutubeID: "aaaaaaaaaaa",
		ChannelID: channelID,
		FilePath:  videoPath,
	}); err != nil {
		t.Fatal(err)
	}
	return dir
}

func subFolderPatch(value string) models.SettingsPatch {
	return models.SettingsPatch{SubFolder: models.OptString{Set: true, Value: value}}
}

func TestUpdateMovesFolderAndRewritesPaths(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	oldDir := e.seedChannel(t, "UCtest", "TestChannel")

	settings, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("Music"))
	if err != nil {
		t.Fatalf("UpdateChannelSettings: %v", err)
	}
	if settings.SubFolder == nil || *settings.SubFolder != "Music" {
		t.Errorf("settings sub_folder = %v", settings.SubFolder)
	}

	newDir := filepath.Join(e.baseDir, "__Music", "TestChannel")
	if _, err := os.Stat(newDir); err != nil {
		t.Errorf("channel folder not at new location: %v", err)
	}
	if _, err := os.Stat(oldDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("old channel folder still present")
	}

	vids, err := e.stores.Videos.ListWithFilePaths("UCtest")
	if err != nil || len(vids) != 1 {
		t.Fatalf("ListWithFilePaths: %v, %v", vids, err)
	}
	want := filepath.Join(newDir, "First Video [aaaaaaaaaaa].mp4")
	if vids[0].FilePath != want {
		t.Errorf("video path = %q, want %q", vids[0].FilePath, want)
	}

	e.plex.waitCalled(t)
}

func TestUpdateBackToRoot(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.seedChannel(t, "UCtest", "TestChannel")

	if _, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("Music")); err != nil {
		t.Fatal(err)
	}
	e.plex.waitCalled(t)

	settings, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch(consts.RootSentinel))
	if err != nil {
		t.Fatalf("move back to root: %v", err)
	}
	if settings.SubFolder != nil {
		t.Errorf("root sub_folder should render null, got %q", *settings.SubFolder)
	}
	if _, err := os.Stat(filepath.Join(e.baseDir, "TestChannel")); err != nil {
		t.Errorf("channel folder not back at root: %v", err)
	}
}

func TestUpdateRejectsReservedPrefix(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.seedChannel(t, "UCtest", "TestChannel")

	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("__Music"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Message != "Subfolder names cannot start with __ (reserved prefix)" {
		t.Errorf("unexpected message: %q", vErr.Message)
	}
}

func TestUpdateRefusedWhileDownloadsActive(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	oldDir := e.seedChannel(t, "UCtest", "TestChannel")

	if _, err := e.stores.Downloads.Add("job-1", "bbbbbbbbbbb", "UCtest", consts.DLStatusInProgress); err != nil {
		t.Fatal(err)
	}

	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("Music"))
	if !errors.Is(err, ErrActiveDownloads) {
		t.Fatalf("expected ErrActiveDownloads, got %v", err)
	}
	if want := "Cannot change subfolder while downloads are in progress for this channel"; err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}
	if _, err := os.Stat(oldDir); err != nil {
		t.Errorf("folder should not have moved: %v", err)
	}
	settings, _ := e.svc.GetChannelSettings("UCtest")
	if settings.SubFolder != nil {
		t.Errorf("sub_folder should be unchanged, got %q", *settings.SubFolder)
	}
}

func TestUpdateRefusedWhileDownloadsActiveEvenIfInvalid(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.seedChannel(t, "UCtest", "TestChannel")

	if _, err := e.stores.Downloads.Add("job-1", "bbbbbbbbbbb", "UCtest", consts.DLStatusPending); err != nil {
		t.Fatal(err)
	}

	// The active-downloads check comes before field validation, so even a
	// reserved name is answered with the busy error.
	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("__Bad"))
	if !errors.Is(err, ErrActiveDownloads) {
		t.Fatalf("expected ErrActiveDownloads, got %v", err)
	}
}

func TestUpdateReportsMoveFailure(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	oldDir := e.seedChannel(t, "UCtest", "TestChannel")

	// A plain file where the subfolder directory should go makes the move
	// itself fail, past the destination-exists check.
	if err := os.WriteFile(filepath.Join(e.baseDir, "__Music"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("Music"))
	var mvErr *MoveError
	if !errors.As(err, &mvErr) {
		t.Fatalf("expected MoveError, got %v", err)
	}
	if !strings.HasPrefix(mvErr.Error(), "Failed to move channel folder: ") {
		t.Errorf("error message = %q", mvErr.Error())
	}

	// The column was rolled back and the source folder is untouched.
	settings, err := e.svc.GetChannelSettings("UCtest")
	if err != nil {
		t.Fatal(err)
	}
	if settings.SubFolder != nil {
		t.Errorf("sub_folder not rolled back, got %q", *settings.SubFolder)
	}
	if _, err := os.Stat(oldDir); err != nil {
		t.Errorf("source folder missing after failed move: %v", err)
	}
}

func TestUpdateRollsBackWhenDestinationExists(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	oldDir := e.seedChannel(t, "UCtest", "TestChannel")

	// Occupy the destination.
	if err := os.MkdirAll(filepath.Join(e.baseDir, "__Music", "TestChannel"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", subFolderPatch("Music"))
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}

	// The column was rolled back and the source folder is untouched.
	settings, err := e.svc.GetChannelSettings("UCtest")
	if err != nil {
		t.Fatal(err)
	}
	if settings.SubFolder != nil {
		t.Errorf("sub_folder not rolled back, got %q", *settings.SubFolder)
	}
	if _, err := os.Stat(oldDir); err != nil {
		t.Errorf("source folder missing after failed move: %v", err)
	}
}

func TestUpdateWithMissingSourceFolder(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	// Channel exists in the database but nothing was downloaded yet.
	if _, err := e.stores.Channels.AddChannel(&models.Channel{
		ChannelID:  "UCfresh",
		FolderName: "FreshChannel",
	}); err != nil {
		t.Fatal(err)
	}

	settings, err := e.svc.UpdateChannelSettings(context.Background(), "UCfresh", subFolderPatch("Music"))
	if err != nil {
		t.Fatalf("update with no folder on disk: %v", err)
	}
	if settings.SubFolder == nil || *settings.SubFolder != "Music" {
		t.Errorf("sub_folder = %v", settings.SubFolder)
	}
}

func TestUpdateUnknownChannel(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCnope", subFolderPatch("Music"))
	if !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
	if _, err := e.svc.GetChannelSettings("UCnope"); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound from get, got %v", err)
	}
}

func TestUpdateEmptyPatch(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	_, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", models.SettingsPatch{})
	if !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("expected ErrEmptyUpdate, got %v", err)
	}
}

func TestNonRelocationUpdate(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	oldDir := e.seedChannel(t, "UCtest", "TestChannel")

	patch := models.SettingsPatch{
		VideoQuality: models.OptString{Set: true, Value: "1080"},
		MinDuration:  models.OptInt{Set: true, Value: 60},
	}
	settings, err := e.svc.UpdateChannelSettings(context.Background(), "UCtest", patch)
	if err != nil {
		t.Fatalf("UpdateChannelSettings: %v", err)
	}
	if settings.VideoQuality == nil || *settings.VideoQuality != "1080" {
		t.Errorf("video_quality = %v", settings.VideoQuality)
	}
	if settings.MinDuration == nil || *settings.MinDuration != 60 {
		t.Errorf("min_duration = %v", settings.MinDuration)
	}
	if _, err := os.Stat(oldDir); err != nil {
		t.Errorf("folder moved on non-subfolder update: %v", err)
	}
}
