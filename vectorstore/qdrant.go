package vectorstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// RemoteConfig configures the Qdrant-backed VectorStore.
type RemoteConfig struct {
	Collection string
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
}

// RemoteStore is a Qdrant-backed VectorStore, the recommended backend once
// a single process is no longer enough (shared index across instances,
// larger-than-RAM corpora).
type RemoteStore struct {
	client     *qdrant.Client
	collection string
}

// NewRemoteStore dials Qdrant and ensures the target collection is usable.
func NewRemoteStore(ctx context.Context, cfg RemoteConfig) (*RemoteStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create qdrant client: %w", err)
	}
	return &RemoteStore{client: client, collection: cfg.Collection}, nil
}

func (s *RemoteStore) ensureCollection(ctx context.Context, dimension uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("vectorstore: check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection: %w", err)
	}
	return nil
}

func toQdrantValue(v interface{}) (*qdrant.Value, error) {
	val, err := qdrant.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: convert metadata value: %w", err)
	}
	return val, nil
}

func (s *RemoteStore) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, uint64(len(records[0].Vector))); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		payload := make(map[string]*qdrant.Value, len(r.Metadata)+1)
		payload["content"] = qdrant.NewValueString(r.Content)
		for k, v := range r.Metadata {
			val, err := toQdrantValue(v)
			if err != nil {
				return err
			}
			payload[k] = val
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: payload,
		})
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("vectorstore: upsert points: %w", err)
	}
	return nil
}

func (s *RemoteStore) Search(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	points, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	out := make([]Result, 0, len(points.Result))
	for _, p := range points.Result {
		var id string
		if p.Id != nil {
			switch idType := p.Id.PointIdOptions.(type) {
			case *qdrant.PointId_Uuid:
				id = idType.Uuid
			case *qdrant.PointId_Num:
				id = fmt.Sprintf("%d", idType.Num)
			}
		}

		metadata := make(map[string]interface{}, len(p.Payload))
		content := ""
		for k, v := range p.Payload {
			switch val := v.Kind.(type) {
			case *qdrant.Value_StringValue:
				if k == "content" {
					content = val.StringValue
				} else {
					metadata[k] = val.StringValue
				}
			case *qdrant.Value_IntegerValue:
				metadata[k] = val.IntegerValue
			case *qdrant.Value_DoubleValue:
				metadata[k] = val.DoubleValue
			case *qdrant.Value_BoolValue:
				metadata[k] = val.BoolValue
			default:
				metadata[k] = v
			}
		}

		out = append(out, Result{ID: id, Score: p.Score, Content: content, Metadata: metadata})
	}
	return out, nil
}

func (s *RemoteStore) Count(ctx context.Context) (int, error) {
	resp, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collection})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count: %w", err)
	}
	return int(resp), nil
}

func (s *RemoteStore) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("vectorstore: clear: %w", err)
	}
	return nil
}

func (s *RemoteStore) GetIndexedPaths(ctx context.Context) ([]string, error) {
	limit := uint32(1000)
	seen := map[string]struct{}{}
	var offset *qdrant.PointId

	for {
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("vectorstore: scroll: %w", err)
		}
		for _, pt := range resp.Result {
			if v, ok := pt.Payload["source"]; ok {
				if s, ok := v.Kind.(*qdrant.Value_StringValue); ok {
					seen[s.StringValue] = struct{}{}
				}
			}
		}
		if resp.NextPageOffset == nil {
			break
		}
		offset = resp.NextPageOffset
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	return out, nil
}

// RemoveBySource scrolls the full collection to find every point whose
// normalized source payload equals source or lies under it as a subtree,
// then deletes exactly those points by ID, returning how many were removed.
// A payload filter alone can't express the subtree (prefix) half of this
// match, so membership is decided here rather than server-side.
func (s *RemoteStore) RemoveBySource(ctx context.Context, source string) (int, error) {
	normSource := filepath.ToSlash(source)
	limit := uint32(1000)
	var offset *qdrant.PointId
	var ids []*qdrant.PointId

	for {
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return 0, fmt.Errorf("vectorstore: scroll: %w", err)
		}
		for _, pt := range resp.Result {
			v, ok := pt.Payload["source"]
			if !ok {
				continue
			}
			sv, ok := v.Kind.(*qdrant.Value_StringValue)
			if !ok {
				continue
			}
			normSrc := filepath.ToSlash(sv.StringValue)
			if (normSrc == normSource || strings.HasPrefix(normSrc, normSource+"/")) && pt.Id != nil {
				ids = append(ids, pt.Id)
			}
		}
		if resp.NextPageOffset == nil {
			break
		}
		offset = resp.NextPageOffset
	}

	if len(ids) == 0 {
		return 0, nil
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: ids},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: remove by source: %w", err)
	}
	return len(ids), nil
}

func (s *RemoteStore) Close() error {
	return s.client.Close()
}

var _ VectorStore = (*RemoteStore)(nil)
