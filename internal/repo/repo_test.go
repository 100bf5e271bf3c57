package repo

import (
	"errors"
	"path/filepath"
	"testing"

	"plextube/internal/database"
	"plextube/internal/domain/consts"
	"plextube/internal/models"
)

func testStores(t *testing.T) *Stores {
	t.Helper()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return InitStores(db.DB)
}

func TestChannelRoundTrip(t *testing.T) {
	t.Parallel()
	s := testStores(t)

	c := &models.Channel{
		ChannelID:    "UCtest123",
		Uploader:     "Test Channel",
		FolderName:   "Test_Channel",
		SubFolder:    models.Subfolder{Kind: models.SubfolderNamed, Name: "Music"},
		VideoQuality: "1080",
		MinDuration:  60,
	}
	if _, err := s.Channels.AddChannel(c); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	got, err := s.Channels.GetByChannelID("UCtest123")
	if err != nil {
		t.Fatalf("GetByChannelID: %v", err)
	}
	if got.Uploader != "Test Channel" || got.VideoQuality != "1080" || got.MinDuration != 60 {
		t.Errorf("unexpected channel: %+v", got)
	}
	if got.SubFolder.Kind != models.SubfolderNamed || got.SubFolder.Name != "Music" {
		t.Errorf("unexpected subfolder: %+v", got.SubFolder)
	}

	if _, err := s.Channels.GetByChannelID("UCmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChannelSubfolderEncodings(t *testing.T) {
	t.Parallel()
	s := testStores(t)

	cases := []struct {
		channelID string
		sub       models.Subfolder
	}{
		{"UCroot", models.Subfolder{Kind: models.SubfolderRoot}},
		{"UCglobal", models.Subfolder{Kind: models.SubfolderInheritGlobal}},
		{"UCnamed", models.Subfolder{Kind: models.SubfolderNamed, Name: "Kids"}},
	}
	for _, tc := range cases {
		if _, err := s.Channels.AddChannel(&models.Channel{ChannelID: tc.channelID, SubFolder: tc.sub}); err != nil {
			t.Fatalf("AddChannel(%s): %v", tc.channelID, err)
		}
		got, err := s.Channels.GetByChannelID(tc.channelID)
		if err != nil {
			t.Fatalf("GetByChannelID(%s): %v", tc.channelID, err)
		}
		if got.SubFolder != tc.sub {
			t.Errorf("%s: subfolder = %+v, want %+v", tc.channelID, got.SubFolder, tc.sub)
		}
	}

	// Root is stored as NULL, inherit-global as its sentinel.
	raw, hasValue, err := s.Channels.SubfolderRaw("UCroot")
	if err != nil || hasValue {
		t.Errorf("root channel raw = (%q, %v, %v), want NULL", raw, hasValue, err)
	}
	raw, hasValue, err = s.Channels.SubfolderRaw("UCglobal")
	if err != nil || !hasValue || raw != consts.GlobalDefaultSentinel {
		t.Errorf("inherit channel raw = (%q, %v, %v)", raw, hasValue, err)
	}
}

func TestUpdateSettingsPatch(t *testing.T) {
	t.Parallel()
	s := testStores(t)

	if _, err := s.Channels.AddChannel(&models.Channel{
		ChannelID:    "UCpatch",
		VideoQuality: "720",
		MinDuration:  30,
	}); err != nil {
		t.Fatal(err)
	}

	// Set one field, null another, leave the rest untouched.
	patch := models.SettingsPatch{
		VideoQuality: models.OptString{Set: true, Value: "1080"},
		MinDuration:  models.OptInt{Set: true, Null: true},
		SubFolder:    models.OptString{Set: true, Value: "Music"},
	}
	if err := s.Channels.UpdateSettings("UCpatch", patch); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	got, err := s.Channels.GetByChannelID("UCpatch")
	if err != nil {
		t.Fatal(err)
	}
	if got.VideoQuality != "1080" {
		t.Errorf("VideoQuality = %q", got.VideoQuality)
	}
	if got.MinDuration != 0 {
		t.Errorf("MinDuration not cleared: %d", got.MinDuration)
	}
	if got.SubFolder.Kind != models.SubfolderNamed || got.SubFolder.Name != "Music" {
		t.Errorf("SubFolder = %+v", got.SubFolder)
	}

	if err := s.Channels.UpdateSettings("UCmissing", patch); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Channels.UpdateSettings("UCpatch", models.SettingsPatch{}); err != nil {
		t.Errorf("empty patch should be a no-op: %v", err)
	}
}

func TestListSubfolders(t *testing.T) {
	t.Parallel()
	s := testStores(t)

	channels := []*models.Channel{
		{ChannelID: "UC1", SubFolder: models.Subfolder{Kind: models.SubfolderNamed, Name: "music"}},
		{ChannelID: "UC2", SubFolder: models.Subfolder{Kind: models.SubfolderNamed, Name: "Kids"}},
		{ChannelID: "UC3", SubFolder: models.Subfolder{Kind: models.SubfolderNamed, Name: "music"}},
		{ChannelID: "UC4", SubFolder: models.Subfolder{Kind: models.SubfolderRoot}},
		{ChannelID: "UC5", SubFolder: models.Subfolder{Kind: models.SubfolderInheritGlobal}},
	}
	for _, c := range channels {
		if _, err := s.Channels.AddChannel(c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Channels.ListSubfolders()
	if err != nil {
		t.Fatalf("ListSubfolders: %v", err)
	}
	want := []string{"Kids", "music"}
	if len(got) != len(want) {
		t.Fatalf("ListSubfolders = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListSubfolders[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestVideoStore(t *testing.T) {
	t.Parallel()
	s := testStores(t)

	// Videos reference their channel row, enforced by the schema.
	if _, err := s.Channels.AddChannel(&models.Channel{ChannelID: "UCvid", Uploader: "Chan"}); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	age := 18
	if _, err := s.Videos.AddVideo(&models.Video{
		YoutubeID:        "aaaaaaaaaaa",
		ChannelID:        "UCvid",
		Title:            "First",
		FilePath:         "/data/Chan/First [aaaaaaaaaaa].mp4",
		AgeLimit:         &age,
		NormalizedRating: "R",
		RatingSource:     "yt-dlp:age_limit=18",
	}); err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	if _, err := s.Videos.AddVideo(&models.Video{
		YoutubeID: "bbbbbbbbbbb",
		ChannelID: "UCvid",
		Title:     "Not downloaded",
	}); err != nil {
		t.Fatal(err)
	}

	vids, err := s.Videos.ListWithFilePaths("UCvid")
	if err != nil {
		t.Fatalf("ListWithFilePaths: %v", err)
	}
	if len(vids) != 1 || vids[0].YoutubeID != "aaaaaaaaaaa" {
		t.Fatalf("unexpected videos: %+v", vids)
	}

	if err := s.Videos.UpdateFilePath(vids[0].ID, "/data/__Music/Chan/First [aaaaaaaaaaa].mp4"); err != nil {
		t.Fatalf("UpdateFilePath: %v", err)
	}
	vids, _ = s.Videos.ListWithFilePaths("UCvid")
	if vids[0].FilePath != "/data/__Music/Chan/First [aaaaaaaaaaa].mp4" {
		t.Errorf("file path not rewritten: %q", vids[0].FilePath)
	}

	got, err := s.Videos.ExistsDownloaded("aaaaaaaaaaa")
	if err != nil || !got {
		t.Errorf("ExistsDownloaded(downloaded) = %v, %v", got, err)
	}
	got, err = s.Videos.ExistsDownloaded("bbbbbbbbbbb")
	if err != nil || got {
		t.Errorf("ExistsDownloaded(no file) = %v, %v", got, err)
	}
}

func TestDownloadStore(t *testing.T) {
	t.Parallel()
	s := testStores(t)

	id1, err := s.Downloads.Add("job-1", "aaaaaaaaaaa", "UCdl", consts.DLStatusPending)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	id2, err := s.Downloads.Add("job-1", "bbbbbbbbbbb", "UCdl", consts.DLStatusInProgress)
	if err != nil {
		t.Fatal(err)
	}

	count, err := s.Downloads.ActiveCountForChannel("UCdl")
	if err != nil || count != 2 {
		t.Fatalf("ActiveCountForChannel = %d, %v", count, err)
	}

	if err := s.Downloads.SetStatus(id1, consts.DLStatusCompleted, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Downloads.SetStatus(id2, consts.DLStatusFailed, "network error"); err != nil {
		t.Fatal(err)
	}

	count, err = s.Downloads.ActiveCountForChannel("UCdl")
	if err != nil || count != 0 {
		t.Errorf("ActiveCountForChannel after completion = %d, %v", count, err)
	}
}
