package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const testRebuildTopic = "EMBED_STYLE_IMAGES"

func newTestStyleService(t *testing.T, env *testEnv) (IStyleService, <-chan *dto.EmbedStyleImagesMessage) {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	messages, err := pubSub.Subscribe(context.Background(), testRebuildTopic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	decoded := make(chan *dto.EmbedStyleImagesMessage, 8)
	go func() {
		for msg := range messages {
			var payload dto.EmbedStyleImagesMessage
			if err := json.Unmarshal(msg.Payload, &payload); err == nil {
				decoded <- &payload
			}
			msg.Ack()
		}
	}()

	svc := NewStyleService(env.styles, NewPublisherService(testRebuildTopic, pubSub), nil, noopLogger{})
	return svc, decoded
}

func TestImportImagesQueuesEmbeddingRebuild(t *testing.T) {
	env := newTestEnv(t)
	svc, rebuilds := newTestStyleService(t, env)

	newImage := writeFixtureImage(t, filepath.Join(t.TempDir(), "extra.png"), "extra-bytes")
	res, err := svc.ImportImages(context.Background(), env.style.Id, []string{newImage})
	if err != nil {
		t.Fatalf("ImportImages() error = %v", err)
	}
	if res.Added != 1 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 1 added", res)
	}

	select {
	case msg := <-rebuilds:
		if msg.StyleId != env.style.Id {
			t.Errorf("rebuild message style = %q, want %q", msg.StyleId, env.style.Id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild message published")
	}
}

func TestImportImagesSkipsDuplicatesWithoutRebuild(t *testing.T) {
	env := newTestEnv(t)
	svc, rebuilds := newTestStyleService(t, env)

	// same bytes as a reference image the style already holds
	dup := writeFixtureImage(t, filepath.Join(t.TempDir(), "dup.png"), "ref-a")
	res, err := svc.ImportImages(context.Background(), env.style.Id, []string{dup})
	if err != nil {
		t.Fatalf("ImportImages() error = %v", err)
	}
	if res.Added != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v, want everything skipped", res)
	}

	select {
	case msg := <-rebuilds:
		t.Fatalf("rebuild queued for a no-op import: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGetAllHidesServerPaths(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newTestStyleService(t, env)

	styles, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(styles) != 1 {
		t.Fatalf("got %d styles, want 1", len(styles))
	}

	s := styles[0]
	if s.Id != env.style.Id || s.Name != "Bold Marker" {
		t.Errorf("style = %+v", s)
	}
	if s.ReferenceImages == nil || len(s.ReferenceImages) != 0 {
		t.Errorf("reference image paths leaked: %v", s.ReferenceImages)
	}
	if s.DoNotUse == nil || len(s.DoNotUse) != 0 {
		t.Errorf("doNotUse paths leaked: %v", s.DoNotUse)
	}
	if s.VisualRules.LineWeight != "varied" || s.VisualRules.Looseness != "medium" {
		t.Errorf("visual rules = %+v, want the creation defaults", s.VisualRules)
	}
	if s.VisualRules.AdditionalRules == nil {
		t.Error("additionalRules must serialize as an empty array, not null")
	}
}

func TestCreateStyle(t *testing.T) {
	t.Run("default rules", func(t *testing.T) {
		env := newTestEnv(t)
		svc, _ := newTestStyleService(t, env)

		style, err := svc.Create(context.Background(), &dto.CreateStyleRequest{Name: "Chunky Pencil"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if style.Id != "chunky_pencil" {
			t.Errorf("Id = %q, want the slugified name", style.Id)
		}
		if style.VisualRules.LineWeight != "varied" || style.VisualRules.Complexity != "medium" {
			t.Errorf("visual rules = %+v, want defaults applied", style.VisualRules)
		}
	})

	t.Run("explicit rules", func(t *testing.T) {
		env := newTestEnv(t)
		svc, _ := newTestStyleService(t, env)

		style, err := svc.Create(context.Background(), &dto.CreateStyleRequest{
			Name:       "Fine Liner",
			LineWeight: "fine",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if style.VisualRules.LineWeight != "fine" {
			t.Errorf("lineWeight = %q, want fine", style.VisualRules.LineWeight)
		}
	})

	t.Run("with images", func(t *testing.T) {
		env := newTestEnv(t)
		svc, rebuilds := newTestStyleService(t, env)

		img := writeFixtureImage(t, filepath.Join(t.TempDir(), "seed.png"), "seed-bytes")
		style, err := svc.Create(context.Background(), &dto.CreateStyleRequest{
			Name:       "Seeded Style",
			ImagePaths: []string{img},
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if len(style.ReferenceImages) != 1 {
			t.Errorf("reference images = %v, want the imported seed", style.ReferenceImages)
		}

		select {
		case msg := <-rebuilds:
			if msg.StyleId != "seeded_style" {
				t.Errorf("rebuild message style = %q", msg.StyleId)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no rebuild queued for the seeded images")
		}
	})
}
