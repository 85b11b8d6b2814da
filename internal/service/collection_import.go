package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/id"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/slug"
	"github.com/pintree/pintree-admin/internal/store/sqlite"
)

// CollectionImportService is the bundled persistence backend: it serves the
// three batch calls of the persistence API against the SQLite store. Each
// call runs in one transaction, so a rejected batch writes nothing.
type CollectionImportService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewCollectionImportService creates a new collection import service.
func NewCollectionImportService(store *sqlite.Store, logger *slog.Logger) *CollectionImportService {
	return &CollectionImportService{
		store:  store,
		logger: logger,
	}
}

// RecoverFolders creates one batch of folders. Without a collection id it
// creates the collection first. Each folder's parent is resolved through
// the incoming folder map or a folder created earlier in the same batch.
func (s *CollectionImportService) RecoverFolders(ctx context.Context, req *persistence.FoldersRequest) (*persistence.BatchResponse, error) {
	var resp *persistence.BatchResponse
	err := s.store.InBatch(ctx, func(b *sqlite.Batch) error {
		collectionID, err := s.openCollection(ctx, b, req.CollectionID, req.Name, req.Description)
		if err != nil {
			return err
		}

		folders := newFolderResolver(b, collectionID, req.FolderMap)
		for i, f := range req.Folders {
			if f.ID == "" {
				return domainerrors.Validationf("folder %d has no id", i+1)
			}
			if _, dup := folders.local[f.ID]; dup {
				return domainerrors.Validationf("folder %q is already mapped", f.ID)
			}

			parentID := ""
			if f.ParentID != "" {
				parentID, err = folders.resolve(ctx, f.ParentID)
				if err != nil {
					return err
				}
				if parentID == "" {
					return domainerrors.Validationf("parent folder %q of folder %q has not been created", f.ParentID, f.ID)
				}
			}

			order := i
			if f.SortOrder != nil {
				order = *f.SortOrder
			}
			if _, err := folders.create(ctx, f.ID, strings.TrimSpace(f.Name), f.Icon, parentID, order); err != nil {
				return err
			}
		}

		if err := b.TouchCollection(ctx, collectionID); err != nil {
			return err
		}
		resp = &persistence.BatchResponse{
			CollectionID: collectionID,
			FolderMap:    folders.local,
			Created:      folders.created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("folder batch stored",
		"collection_id", resp.CollectionID,
		"folders", resp.Created,
	)
	return resp, nil
}

// RecoverBookmarks adds one batch of bookmarks to an existing collection.
// A bookmark's folderId is translated through the folder map; an empty
// folderId places the bookmark at the collection root.
func (s *CollectionImportService) RecoverBookmarks(ctx context.Context, req *persistence.BookmarksRequest) (*persistence.BatchResponse, error) {
	if req.CollectionID == "" {
		return nil, domainerrors.Validation("collectionId is required")
	}

	var resp *persistence.BatchResponse
	err := s.store.InBatch(ctx, func(b *sqlite.Batch) error {
		if err := requireCollection(ctx, b, req.CollectionID); err != nil {
			return err
		}

		folders := newFolderResolver(b, req.CollectionID, req.FolderMap)
		order, err := b.NextBookmarkOrder(ctx, req.CollectionID)
		if err != nil {
			return err
		}

		for i, bm := range req.Bookmarks {
			folderID := ""
			if bm.FolderID != "" {
				folderID, err = folders.resolve(ctx, bm.FolderID)
				if err != nil {
					return err
				}
				if folderID == "" {
					return domainerrors.Validationf("bookmark %d references unmapped folder %q", i+1, bm.FolderID)
				}
			}
			if err := createBookmark(ctx, b, req.CollectionID, folderID, bm, order+i, i); err != nil {
				return err
			}
		}

		if err := b.TouchCollection(ctx, req.CollectionID); err != nil {
			return err
		}
		resp = &persistence.BatchResponse{CollectionID: req.CollectionID, Created: len(req.Bookmarks)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ImportGeneric adds one batch of flattened bookmarks. Without a collection
// id it creates the collection first. Every folder named in a bookmark's
// folderPath that is not in the folder map yet is created under the
// previous folder of the path, and the extended map is returned.
func (s *CollectionImportService) ImportGeneric(ctx context.Context, req *persistence.GenericImportRequest) (*persistence.BatchResponse, error) {
	var resp *persistence.BatchResponse
	err := s.store.InBatch(ctx, func(b *sqlite.Batch) error {
		collectionID, err := s.openCollection(ctx, b, req.CollectionID, req.Name, req.Description)
		if err != nil {
			return err
		}

		folders := newFolderResolver(b, collectionID, req.FolderMap)
		order, err := b.NextBookmarkOrder(ctx, collectionID)
		if err != nil {
			return err
		}

		for i, bm := range req.Bookmarks {
			folderID, err := folders.materialize(ctx, bm)
			if err != nil {
				return err
			}
			if folderID == "" && bm.FolderID != "" {
				return domainerrors.Validationf("bookmark %d references unmapped folder %q", i+1, bm.FolderID)
			}
			if err := createBookmark(ctx, b, collectionID, folderID, bm, order+i, i); err != nil {
				return err
			}
		}

		if err := b.TouchCollection(ctx, collectionID); err != nil {
			return err
		}
		resp = &persistence.BatchResponse{
			CollectionID: collectionID,
			FolderMap:    folders.local,
			Created:      len(req.Bookmarks),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("generic batch stored",
		"collection_id", resp.CollectionID,
		"bookmarks", resp.Created,
		"folders", len(resp.FolderMap),
	)
	return resp, nil
}

// openCollection returns collectionID after checking it exists, or creates
// a new collection when collectionID is empty.
func (s *CollectionImportService) openCollection(ctx context.Context, b *sqlite.Batch, collectionID, name, description string) (string, error) {
	if collectionID != "" {
		return collectionID, requireCollection(ctx, b, collectionID)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", domainerrors.Validation("collection name is required")
	}

	collSlug, err := slug.Unique(slug.Make(name), func(candidate string) (bool, error) {
		return b.SlugTaken(ctx, candidate)
	})
	if err != nil {
		return "", err
	}

	newID, err := id.Generate(id.PrefixCollection)
	if err != nil {
		return "", err
	}
	coll := &domain.Collection{
		ID:          newID,
		Name:        name,
		Slug:        collSlug,
		Description: strings.TrimSpace(description),
		CreatedAt:   b.Now(),
		UpdatedAt:   b.Now(),
	}
	if err := b.CreateCollection(ctx, coll); err != nil {
		return "", err
	}

	s.logger.Info("collection created", "collection_id", coll.ID, "slug", coll.Slug)
	return coll.ID, nil
}

func requireCollection(ctx context.Context, b *sqlite.Batch, collectionID string) error {
	ok, err := b.CollectionExists(ctx, collectionID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.NotFoundf("collection %s not found", collectionID)
	}
	return nil
}

func createBookmark(ctx context.Context, b *sqlite.Batch, collectionID, folderID string, bm domain.Bookmark, order, index int) error {
	url := strings.TrimSpace(bm.URL)
	if url == "" {
		return domainerrors.Validationf("bookmark %d has no url", index+1)
	}
	title := strings.TrimSpace(bm.Title)
	if title == "" {
		title = url
	}

	bookmarkID, err := id.Generate(id.PrefixBookmark)
	if err != nil {
		return err
	}
	return b.CreateBookmark(ctx, &domain.CollectionBookmark{
		ID:           bookmarkID,
		CollectionID: collectionID,
		FolderID:     folderID,
		Title:        title,
		URL:          url,
		Description:  strings.TrimSpace(bm.Description),
		Icon:         strings.TrimSpace(bm.Icon),
		SortOrder:    order,
		CreatedAt:    b.Now(),
	})
}

// folderResolver translates source folder ids within one batch. It starts
// from the caller's folder map and records every folder the batch creates.
type folderResolver struct {
	batch        *sqlite.Batch
	collectionID string
	local        domain.FolderIDMap
	checked      map[string]bool
	created      int
}

func newFolderResolver(b *sqlite.Batch, collectionID string, incoming domain.FolderIDMap) *folderResolver {
	return &folderResolver{
		batch:        b,
		collectionID: collectionID,
		local:        incoming.Clone(),
		checked:      make(map[string]bool),
	}
}

// resolve returns the server id mapped to src, or "" when src is unmapped.
// A mapped id must belong to the collection.
func (r *folderResolver) resolve(ctx context.Context, src domain.SourceID) (string, error) {
	serverID, ok := r.local.Resolve(src)
	if !ok {
		return "", nil
	}
	if !r.checked[serverID] {
		owned, err := r.batch.FolderInCollection(ctx, r.collectionID, serverID)
		if err != nil {
			return "", err
		}
		if !owned {
			return "", domainerrors.Validationf("folder %q maps to %s, which is not in collection %s", src, serverID, r.collectionID)
		}
		r.checked[serverID] = true
	}
	return serverID, nil
}

func (r *folderResolver) create(ctx context.Context, src domain.SourceID, name, icon, parentID string, order int) (string, error) {
	if name == "" {
		name = "Untitled folder"
	}
	folderID, err := id.Generate(id.PrefixFolder)
	if err != nil {
		return "", err
	}
	if err := r.batch.CreateFolder(ctx, &domain.CollectionFolder{
		ID:           folderID,
		CollectionID: r.collectionID,
		ParentID:     parentID,
		Name:         name,
		Icon:         strings.TrimSpace(icon),
		SortOrder:    order,
		CreatedAt:    r.batch.Now(),
	}); err != nil {
		return "", err
	}
	r.local[src] = folderID
	r.checked[folderID] = true
	r.created++
	return folderID, nil
}

// materialize returns the server folder for a flattened bookmark, creating
// the missing tail of its folderPath. Without a path the folderId alone is
// resolved.
func (r *folderResolver) materialize(ctx context.Context, bm domain.Bookmark) (string, error) {
	if len(bm.FolderPath) == 0 {
		if bm.FolderID == "" {
			return "", nil
		}
		return r.resolve(ctx, bm.FolderID)
	}

	parentID := ""
	for _, ref := range bm.FolderPath {
		src := domain.SourceID(ref.ID)
		if src == "" {
			return "", domainerrors.Validationf("folder %q in path has no id", ref.Name)
		}
		serverID, err := r.resolve(ctx, src)
		if err != nil {
			return "", err
		}
		if serverID == "" {
			serverID, err = r.create(ctx, src, strings.TrimSpace(ref.Name), "", parentID, siblingOrder(src))
			if err != nil {
				return "", err
			}
		}
		parentID = serverID
	}
	return parentID, nil
}

// siblingOrder reads a folder's position among its siblings from the last
// segment of its index path ("g0.2" is third under "g0"). Ids that are not
// index paths sort first.
func siblingOrder(src domain.SourceID) int {
	s := string(src)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "g")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
