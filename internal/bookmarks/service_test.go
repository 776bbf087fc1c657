package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/db"
)

func testPools() *bank.Pools {
	var qs []bank.Question
	for i := 0; i < 3; i++ {
		raw := bank.RawQuestion{
			Question: fmt.Sprintf("odd one out %d", i),
			Choices:  []string{"a", "b", "c", "d"},
			Answer:   bank.IndexAnswer(1),
		}
		qs = append(qs, bank.Normalize(raw, bank.TypeOdd, i))
	}
	return bank.NewPools(map[bank.QuestionType][]bank.Question{bank.TypeOdd: qs})
}

func stores(t *testing.T) map[string]Store {
	d, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "b.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return map[string]Store{"memory": NewInMemoryStore(), "sql": NewSQLStore(d)}
}

func newSvc(store Store, pools *bank.Pools) *Service {
	svc := NewService(store, pools)
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc
}

func TestFolders(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := newSvc(store, testPools())

			list, err := svc.ListFolders(ctx, "u1")
			if err != nil || len(list) != 1 || !list[0].IsDefault || list[0].Name != DefaultFolderName {
				t.Fatalf("default folder: %+v %v", list, err)
			}
			def := list[0]
			again, _ := svc.EnsureDefault(ctx, "u1")
			if again.ID != def.ID {
				t.Fatal("default folder created twice")
			}

			if _, err := svc.CreateFolder(ctx, "u1", "  "); !errors.Is(err, ErrBadName) {
				t.Fatalf("blank name: %v", err)
			}
			f, err := svc.CreateFolder(ctx, "u1", "Hard ones")
			if err != nil {
				t.Fatal(err)
			}
			renamed, err := svc.RenameFolder(ctx, "u1", f.ID, "Review")
			if err != nil || renamed.Name != "Review" {
				t.Fatalf("rename: %+v %v", renamed, err)
			}
			if _, err := svc.RenameFolder(ctx, "u2", f.ID, "mine"); !errors.Is(err, ErrForbidden) {
				t.Fatalf("foreign rename: %v", err)
			}

			list, _ = svc.ListFolders(ctx, "u1")
			if len(list) != 2 || list[0].ID != def.ID || list[1].ID != f.ID {
				t.Fatalf("folder order %+v", list)
			}

			if err := svc.DeleteFolder(ctx, "u1", def.ID); !errors.Is(err, ErrDefaultFolder) {
				t.Fatalf("delete default: %v", err)
			}
			if err := svc.DeleteFolder(ctx, "u1", f.ID); err != nil {
				t.Fatal(err)
			}
			if err := svc.DeleteFolder(ctx, "u1", f.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("delete twice: %v", err)
			}
		})
	}
}

func TestBookmarks(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			pools := testPools()
			svc := newSvc(store, pools)
			qs := pools.Pool(bank.TypeOdd)
			def, _ := svc.EnsureDefault(ctx, "u1")

			if _, err := svc.Add(ctx, "u1", def.ID, "nope"); !errors.Is(err, ErrUnknownQuestion) {
				t.Fatalf("unknown question: %v", err)
			}
			if _, err := svc.Add(ctx, "u1", def.ID, qs[2].ID); err != nil {
				t.Fatal(err)
			}
			b, err := svc.Add(ctx, "u1", def.ID, bank.RepeatID(qs[0].ID, 40))
			if err != nil {
				t.Fatal(err)
			}
			if b.QuestionID != qs[0].ID {
				t.Fatalf("repeat id not canonicalized: %s", b.QuestionID)
			}
			if _, err := svc.Add(ctx, "u1", def.ID, qs[0].ID); !errors.Is(err, ErrDuplicate) {
				t.Fatalf("duplicate: %v", err)
			}
			if _, err := svc.Add(ctx, "u2", def.ID, qs[1].ID); !errors.Is(err, ErrForbidden) {
				t.Fatalf("foreign add: %v", err)
			}

			got, err := svc.Questions(ctx, "u1", def.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 || got[0].ID != qs[2].ID || got[1].ID != qs[0].ID {
				t.Fatalf("questions in insertion order: %v", got)
			}
			folder, _ := store.GetFolder(ctx, def.ID)
			if folder.Count != 2 {
				t.Fatalf("count %d", folder.Count)
			}

			if err := svc.Remove(ctx, "u1", def.ID, qs[2].ID); err != nil {
				t.Fatal(err)
			}
			if err := svc.Remove(ctx, "u1", def.ID, qs[2].ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("remove twice: %v", err)
			}
			list, _ := svc.List(ctx, "u1", def.ID)
			if len(list) != 1 || list[0].QuestionID != qs[0].ID {
				t.Fatalf("after remove %+v", list)
			}
		})
	}
}

func TestQuestionsSkipsRemovedFromBank(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	full := testPools()
	svc := newSvc(store, full)
	def, _ := svc.EnsureDefault(ctx, "u1")
	for _, q := range full.Pool(bank.TypeOdd) {
		if _, err := svc.Add(ctx, "u1", def.ID, q.ID); err != nil {
			t.Fatal(err)
		}
	}

	smaller := bank.NewPools(map[bank.QuestionType][]bank.Question{bank.TypeOdd: full.Pool(bank.TypeOdd)[:1]})
	got, err := newSvc(store, smaller).Questions(ctx, "u1", def.ID)
	if err != nil || len(got) != 1 {
		t.Fatalf("got %d questions, err %v", len(got), err)
	}
}
