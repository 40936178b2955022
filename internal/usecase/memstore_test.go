package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// gorm repositoryのインメモリ版。WithinTxとSavepointはmapのスナップショットを取り、
// fnが失敗したら戻す。
type memStore struct {
	nextID     int64
	products   map[int64]model.Product
	variants   map[int64]model.ProductVariant
	images     map[int64]model.ProductImage
	categories map[int64]model.Category
	lines      map[int64]model.CartLine

	failImageCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[int64]model.Product{},
		variants:   map[int64]model.ProductVariant{},
		images:     map[int64]model.ProductImage{},
		categories: map[int64]model.Category{},
		lines:      map[int64]model.CartLine{},
	}
}

type memSnapshot struct {
	nextID     int64
	products   map[int64]model.Product
	variants   map[int64]model.ProductVariant
	images     map[int64]model.ProductImage
	categories map[int64]model.Category
	lines      map[int64]model.CartLine
}

func cloneMap[T any](m map[int64]T) map[int64]T {
	out := make(map[int64]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		nextID:     s.nextID,
		products:   cloneMap(s.products),
		variants:   cloneMap(s.variants),
		images:     cloneMap(s.images),
		categories: cloneMap(s.categories),
		lines:      cloneMap(s.lines),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.nextID = snap.nextID
	s.products = snap.products
	s.variants = snap.variants
	s.images = snap.images
	s.categories = snap.categories
	s.lines = snap.lines
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snap := s.snapshot()
	if err := fn(memTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// seed用

func (s *memStore) addCategory(name string) model.Category {
	c := model.Category{ID: s.id(), Name: name, Slug: strings.ToLower(name)}
	s.categories[c.ID] = c
	return c
}

func (s *memStore) addProduct(p model.Product) model.Product {
	p.ID = s.id()
	if p.Slug == "" {
		p.Slug = fmt.Sprintf("p-%d", p.ID)
	}
	p.Variants, p.Images = nil, nil
	s.products[p.ID] = p
	return p
}

func (s *memStore) addVariant(v model.ProductVariant) model.ProductVariant {
	v.ID = s.id()
	s.variants[v.ID] = v
	return v
}

func (s *memStore) addImage(img model.ProductImage) model.ProductImage {
	img.ID = s.id()
	s.images[img.ID] = img
	return img
}

func (s *memStore) linesOf(userID int64) []model.CartLine {
	var out []model.CartLine
	for _, id := range sortedIDs(s.lines) {
		if s.lines[id].UserID == userID {
			out = append(out, s.lines[id])
		}
	}
	return out
}

// gormのFindByIDのpreloadと同じように関連を組み立てる。
func (s *memStore) assemble(p model.Product) model.Product {
	if c, ok := s.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	p.Variants = []model.ProductVariant{}
	p.Images = []model.ProductImage{}
	for _, id := range sortedIDs(s.variants) {
		v := s.variants[id]
		if v.ProductID != p.ID {
			continue
		}
		v.Images = s.variantImages(v.ID)
		p.Variants = append(p.Variants, v)
	}
	for _, id := range sortedIDs(s.images) {
		img := s.images[id]
		if img.ProductID == p.ID && img.VariantID == nil {
			p.Images = append(p.Images, img)
		}
	}
	sort.SliceStable(p.Images, func(i, j int) bool { return p.Images[i].SortOrder < p.Images[j].SortOrder })
	return p
}

func (s *memStore) variantImages(variantID int64) []model.ProductImage {
	out := []model.ProductImage{}
	for _, id := range sortedIDs(s.images) {
		img := s.images[id]
		if img.VariantID != nil && *img.VariantID == variantID {
			out = append(out, img)
		}
	}
	return out
}

type memTx struct{ s *memStore }

func (t memTx) Products() repo.ProductRepository    { return memProducts{t.s} }
func (t memTx) Variants() repo.VariantRepository    { return memVariants{t.s} }
func (t memTx) Images() repo.ImageRepository        { return memImages{t.s} }
func (t memTx) Categories() repo.CategoryRepository { return memCategories{t.s} }
func (t memTx) CartLines() repo.CartRepository      { return memCart{t.s} }

func (t memTx) Savepoint(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return t.s.WithinTx(ctx, fn)
}

type memProducts struct{ s *memStore }

func (r memProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, id := range sortedIDs(r.s.products) {
		out = append(out, r.s.assemble(r.s.products[id]))
	}
	return out, int64(len(out)), nil
}

func (r memProducts) Counts(ctx context.Context) (repo.ProductCounts, error) {
	return repo.ProductCounts{TotalProducts: int64(len(r.s.products))}, nil
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return r.s.assemble(p), nil
}

func (r memProducts) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	for _, p := range r.s.products {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r memProducts) Create(ctx context.Context, p *model.Product) error {
	if ok, _ := r.SlugExists(ctx, p.Slug, 0); ok {
		return repo.ErrDuplicate
	}
	p.ID = r.s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Variants, stored.Images, stored.Category = nil, nil, nil
	r.s.products[p.ID] = stored
	return nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	p.Variants, p.Images, p.Category = nil, nil, nil
	r.s.products[p.ID] = p
	return nil
}

func (r memProducts) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

type memVariants struct{ s *memStore }

func (r memVariants) FindByID(ctx context.Context, id int64) (model.ProductVariant, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	return v, nil
}

func (r memVariants) SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error) {
	for _, v := range r.s.variants {
		if v.SKU == sku && v.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r memVariants) Create(ctx context.Context, v *model.ProductVariant) error {
	if ok, _ := r.SKUExists(ctx, v.SKU, 0); ok {
		return repo.ErrDuplicate
	}
	v.ID = r.s.id()
	stored := *v
	stored.Images = nil
	r.s.variants[v.ID] = stored
	return nil
}

func (r memVariants) Update(ctx context.Context, v model.ProductVariant) error {
	if _, ok := r.s.variants[v.ID]; !ok {
		return repo.ErrNotFound
	}
	v.Images = nil
	r.s.variants[v.ID] = v
	return nil
}

func (r memVariants) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.variants[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.variants, id)
	return nil
}

type memImages struct{ s *memStore }

func (r memImages) FindByID(ctx context.Context, id int64) (model.ProductImage, error) {
	img, ok := r.s.images[id]
	if !ok {
		return model.ProductImage{}, repo.ErrNotFound
	}
	return img, nil
}

func (r memImages) ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	out := []model.ProductImage{}
	for _, id := range sortedIDs(r.s.images) {
		if r.s.images[id].ProductID == productID {
			out = append(out, r.s.images[id])
		}
	}
	return out, nil
}

func (r memImages) ListByVariantID(ctx context.Context, variantID int64) ([]model.ProductImage, error) {
	return r.s.variantImages(variantID), nil
}

func (r memImages) NextGeneralSortOrder(ctx context.Context, productID int64) (int, error) {
	next := 0
	for _, img := range r.s.images {
		if img.ProductID == productID && img.VariantID == nil && img.SortOrder >= next {
			next = img.SortOrder + 1
		}
	}
	return next, nil
}

func (r memImages) Create(ctx context.Context, img *model.ProductImage) error {
	if r.s.failImageCreate {
		return errors.New("insert product_images: connection reset")
	}
	img.ID = r.s.id()
	r.s.images[img.ID] = *img
	return nil
}

func (r memImages) DeleteByID(ctx context.Context, id int64) error {
	if _, ok := r.s.images[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.images, id)
	return nil
}

func (r memImages) DeleteByProductID(ctx context.Context, productID int64) error {
	for id, img := range r.s.images {
		if img.ProductID == productID {
			delete(r.s.images, id)
		}
	}
	return nil
}

type memCategories struct{ s *memStore }

func (r memCategories) List(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	for _, id := range sortedIDs(r.s.categories) {
		out = append(out, r.s.categories[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.s.categories[id]
	return ok, nil
}

func (r memCategories) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, c := range r.s.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r memCategories) Create(ctx context.Context, c *model.Category) error {
	if ok, _ := r.SlugExists(ctx, c.Slug); ok {
		return repo.ErrDuplicate
	}
	c.ID = r.s.id()
	r.s.categories[c.ID] = *c
	return nil
}

type memCart struct{ s *memStore }

func sameVariant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r memCart) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	out := []model.CartLine{}
	for _, l := range r.s.linesOf(userID) {
		if p, ok := r.s.products[l.ProductID]; ok {
			full := r.s.assemble(p)
			l.Product = &full
		}
		if l.VariantID != nil {
			if v, ok := r.s.variants[*l.VariantID]; ok {
				v.Images = r.s.variantImages(v.ID)
				l.Variant = &v
			}
		}
		out = append(out, l)
	}
	return out, nil
}

func (r memCart) FindByID(ctx context.Context, id int64) (model.CartLine, error) {
	l, ok := r.s.lines[id]
	if !ok {
		return model.CartLine{}, repo.ErrNotFound
	}
	return l, nil
}

func (r memCart) FindByKey(ctx context.Context, userID, productID int64, variantID *int64) (model.CartLine, error) {
	for _, l := range r.s.linesOf(userID) {
		if l.ProductID == productID && sameVariant(l.VariantID, variantID) {
			return l, nil
		}
	}
	return model.CartLine{}, repo.ErrNotFound
}

func (r memCart) Create(ctx context.Context, line *model.CartLine) error {
	if _, err := r.FindByKey(ctx, line.UserID, line.ProductID, line.VariantID); err == nil {
		return repo.ErrDuplicate
	}
	line.ID = r.s.id()
	r.s.lines[line.ID] = *line
	return nil
}

func (r memCart) UpdateQuantity(ctx context.Context, id int64, qty int64) error {
	l, ok := r.s.lines[id]
	if !ok {
		return repo.ErrNotFound
	}
	l.Quantity = qty
	r.s.lines[id] = l
	return nil
}

func (r memCart) DeleteByID(ctx context.Context, id int64) error {
	if _, ok := r.s.lines[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.lines, id)
	return nil
}

func (r memCart) deleteWhere(match func(model.CartLine) bool) error {
	for id, l := range r.s.lines {
		if match(l) {
			delete(r.s.lines, id)
		}
	}
	return nil
}

func (r memCart) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.deleteWhere(func(l model.CartLine) bool { return l.UserID == userID })
}

func (r memCart) DeleteByProductID(ctx context.Context, productID int64) error {
	return r.deleteWhere(func(l model.CartLine) bool { return l.ProductID == productID })
}

func (r memCart) DeleteByVariantID(ctx context.Context, variantID int64) error {
	return r.deleteWhere(func(l model.CartLine) bool { return l.VariantID != nil && *l.VariantID == variantID })
}

// 保存・削除したpathを記録する。failSaveにあるファイル名の保存はエラーにする。
type memStorage struct {
	n        int
	files    map[string][]byte
	deleted  []string
	failSave map[string]bool
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}, failSave: map[string]bool{}}
}

func (m *memStorage) Save(ctx context.Context, dir string, f repo.FileUpload) (string, error) {
	if m.failSave[f.Filename] {
		return "", errors.New("disk full")
	}
	m.n++
	p := fmt.Sprintf("%s/%d-%s", dir, m.n, f.Filename)
	m.files[p] = f.Data
	return p, nil
}

func (m *memStorage) Delete(ctx context.Context, p string) error {
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

func (m *memStorage) URL(p string) string {
	return "http://cdn.test/" + p
}
