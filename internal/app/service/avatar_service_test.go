package service

import (
	"context"
	"errors"
	"testing"

	"examquest/internal/common"
	"examquest/internal/domain/model"
)

func testAvatarDefinitions() []model.AvatarDefinition {
	return []model.AvatarDefinition{
		{ID: "ava-001", Code: "rookie", Name: "Rookie"},
		{ID: "ava-002", Code: "bookworm", Name: "Bookworm"},
		{ID: "ava-003", Code: "gold-star", Name: "Gold Star", RequiredAchievementID: strPtr("ach-001")},
		{ID: "ava-004", Code: "trophy", Name: "Trophy", RequiredAchievementID: strPtr("ach-001")},
		{ID: "ava-005", Code: "crown", Name: "Crown", RequiredAchievementID: strPtr("ach-002")},
	}
}

func TestCascadeUnlocks(t *testing.T) {
	avatarRepo := newFakeAvatarRepo(testAvatarDefinitions())
	svc := NewAvatarService(avatarRepo, newFakeProfileRepo())
	ctx := context.Background()

	earned := []model.EarnedAchievement{{ID: "ach-001", Code: "first-steps"}}
	unlocked, err := svc.CascadeUnlocks(ctx, "u1", earned)
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocked) != 2 {
		t.Fatalf("unlocked %d avatars, want 2 gated on ach-001: %+v", len(unlocked), unlocked)
	}
	for _, a := range unlocked {
		if a.Code != "gold-star" && a.Code != "trophy" {
			t.Errorf("unexpected unlock %q", a.Code)
		}
	}

	// Replaying the same earned list unlocks nothing new.
	again, err := svc.CascadeUnlocks(ctx, "u1", earned)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("replay unlocked %d avatars, want 0", len(again))
	}
}

func TestCascadeUnlocksEmptyEarnedList(t *testing.T) {
	avatarRepo := newFakeAvatarRepo(testAvatarDefinitions())
	svc := NewAvatarService(avatarRepo, newFakeProfileRepo())

	unlocked, err := svc.CascadeUnlocks(context.Background(), "u1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocked) != 0 {
		t.Errorf("no achievements earned but %d avatars unlocked", len(unlocked))
	}
}

func TestUnlockDefaults(t *testing.T) {
	avatarRepo := newFakeAvatarRepo(testAvatarDefinitions())
	svc := NewAvatarService(avatarRepo, newFakeProfileRepo())
	ctx := context.Background()

	if err := svc.UnlockDefaults(ctx, nil, "u1"); err != nil {
		t.Fatal(err)
	}
	set, _ := avatarRepo.UnlockedSet(ctx, "u1")
	if len(set) != 2 {
		t.Fatalf("unlocked %d defaults, want 2", len(set))
	}
	if _, ok := set["ava-001"]; !ok {
		t.Error("rookie not unlocked")
	}
	if _, ok := set["ava-003"]; ok {
		t.Error("gated avatar unlocked at signup")
	}
}

func TestCatalog(t *testing.T) {
	avatarRepo := newFakeAvatarRepo(testAvatarDefinitions())
	profileRepo := newFakeProfileRepo()
	svc := NewAvatarService(avatarRepo, profileRepo)
	ctx := context.Background()

	selected := "ava-001"
	profileRepo.profiles["u1"] = &model.UserProfile{UserID: "u1", SelectedAvatarID: &selected}
	if err := svc.UnlockDefaults(ctx, nil, "u1"); err != nil {
		t.Fatal(err)
	}

	catalog, err := svc.Catalog(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != len(testAvatarDefinitions()) {
		t.Fatalf("catalog rows = %d, want %d", len(catalog), len(testAvatarDefinitions()))
	}
	for _, entry := range catalog {
		wantUnlocked := entry.RequiredAchievementID == nil
		if entry.Unlocked != wantUnlocked {
			t.Errorf("avatar %s unlocked = %v, want %v", entry.Code, entry.Unlocked, wantUnlocked)
		}
		wantSelected := entry.ID == "ava-001"
		if entry.Selected != wantSelected {
			t.Errorf("avatar %s selected = %v, want %v", entry.Code, entry.Selected, wantSelected)
		}
	}
}

// A user's first submission earns the first-quiz achievement and the
// avatar gated behind it in the same pipeline pass, and every unlock
// with a prerequisite is backed by an earned achievement.
func TestFirstQuizEarnsAchievementAndAvatar(t *testing.T) {
	achievementRepo := newFakeAchievementRepo(testDefinitions())
	avatarRepo := newFakeAvatarRepo(testAvatarDefinitions())
	profileRepo := newFakeProfileRepo()
	profileRepo.profiles["u1"] = &model.UserProfile{UserID: "u1", Level: 1}

	achievementService := NewAchievementService(achievementRepo, profileRepo, newFakeAttemptRepo())
	avatarService := NewAvatarService(avatarRepo, profileRepo)
	ctx := context.Background()

	stats := &model.AttemptStats{
		TotalQuizzes:      1,
		Level:             1,
		QuizzesByExamType: map[string]int{"GED": 1},
	}
	earned, _, err := achievementService.Evaluate(ctx, "u1", "GED", stats)
	if err != nil {
		t.Fatal(err)
	}
	if len(earned) != 1 || earned[0].ID != "ach-001" {
		t.Fatalf("first quiz should earn ach-001, got %+v", earned)
	}

	unlocked, err := avatarService.CascadeUnlocks(ctx, "u1", earned)
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocked) != 2 {
		t.Fatalf("cascade unlocked %d avatars, want the 2 gated on ach-001", len(unlocked))
	}

	earnedSet, _ := achievementRepo.EarnedSet(ctx, "u1")
	unlockedSet, _ := avatarRepo.UnlockedSet(ctx, "u1")
	for _, def := range testAvatarDefinitions() {
		if _, has := unlockedSet[def.ID]; !has || def.RequiredAchievementID == nil {
			continue
		}
		if _, ok := earnedSet[*def.RequiredAchievementID]; !ok {
			t.Errorf("avatar %s unlocked without its achievement %s", def.ID, *def.RequiredAchievementID)
		}
	}
}

func TestSelectRequiresUnlock(t *testing.T) {
	avatarRepo := newFakeAvatarRepo(testAvatarDefinitions())
	profileRepo := newFakeProfileRepo()
	svc := NewAvatarService(avatarRepo, profileRepo)
	ctx := context.Background()

	profileRepo.profiles["u1"] = &model.UserProfile{UserID: "u1"}
	if err := svc.UnlockDefaults(ctx, nil, "u1"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Select(ctx, "u1", "ava-005"); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("selecting a locked avatar: got %v, want ErrForbidden", err)
	}
	if profileRepo.profiles["u1"].SelectedAvatarID != nil {
		t.Error("failed selection must not change the profile")
	}

	if err := svc.Select(ctx, "u1", "ava-002"); err != nil {
		t.Fatalf("selecting an unlocked avatar failed: %v", err)
	}
	if got := profileRepo.profiles["u1"].SelectedAvatarID; got == nil || *got != "ava-002" {
		t.Errorf("selected avatar = %v, want ava-002", got)
	}
}
