package sqlitestore

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"threadscrape/internal/components/chrono"
	"threadscrape/internal/components/telemetry"
	"threadscrape/internal/scrape"
	"threadscrape/internal/scrapers/facebook"
	"threadscrape/internal/scrapers/vnexpress"
	"threadscrape/internal/store/sqlitestore/db"
	configlibsql "threadscrape/lib/configutil/libsql"
	"time"

	"github.com/mazen160/go-random"
)

const (
	report_store_save_page = "store.save-page"
)

// Store keeps scraped pages in sqlite (or libsql), every page written by a
// Store is tagged with the run it belongs to.
type Store struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
	tel    telemetry.API
	runID  string
}

// Open opens the configured database, creates the schema and starts a new
// run.
func Open(ctx context.Context, config configlibsql.Struct, clock chrono.API, tel telemetry.API) (Store, error) {
	database, err := config.OpenDB()
	if err != nil {
		return Store{}, err
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return Store{}, fmt.Errorf("create schema: %w", err)
	}
	store, err := NewStore(ctx, database, clock, tel)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return store, nil
}

// NewStore starts a new run on a database that already has the schema.
func NewStore(ctx context.Context, database *sql.DB, clock chrono.API, tel telemetry.API) (Store, error) {
	runID, err := random.String(16)
	if err != nil {
		return Store{}, err
	}
	qry := db.New(database)
	err = qry.CreateRun(ctx, db.Run{
		ID:      runID,
		Started: clock.Now().Unix(),
	})
	if err != nil {
		return Store{}, fmt.Errorf("create run: %w", err)
	}

	return Store{
		db:     database,
		qry:    qry,
		makeTx: db.NewMakeTx(database),
		tel:    telemetry.NewScopedAPI("sqlitestore", tel),
		runID:  runID,
	}, nil
}

func (s Store) RunID() string {
	return s.runID
}

func (s Store) Close() error {
	return s.db.Close()
}

func savePage[T any](ctx context.Context, s Store, kind db.PageKind, page scrape.Page[T], save func(txqry *db.Queries, pageID int64) error) (int64, error) {
	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return 0, err
	}
	defer discard()

	pageID, err := txqry.CreatePage(ctx, db.CreatePageParams{
		RunID:    s.runID,
		Kind:     kind,
		Sequence: page.Sequence,
		Url:      page.URL,
		Count:    int64(page.Count),
		Scraped:  page.Scraped.UnixNano(),
	})
	if err != nil {
		s.tel.ReportBroken(report_store_save_page, err, page.URL)
		return 0, err
	}
	err = save(txqry, pageID)
	if err != nil {
		s.tel.ReportBroken(report_store_save_page, err, page.URL)
		return 0, err
	}

	err = commit()
	if err != nil {
		return 0, err
	}
	s.tel.ReportDebug("saved page", string(kind), page.URL, pageID)
	return pageID, nil
}

// SavePostPage writes a page of posts in a single transaction and returns
// its id.
func (s Store) SavePostPage(ctx context.Context, page scrape.Page[facebook.Post]) (int64, error) {
	return savePage(ctx, s, db.PAGE_KIND_POSTS, page, func(txqry *db.Queries, pageID int64) error {
		for i, post := range page.Elements {
			err := txqry.CreatePost(ctx, db.CreatePostParams{
				PageID:   pageID,
				Position: int64(i),
				Text:     post.Text,
				Time:     post.Time,
				Likes:    post.Likes,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveCommentPage writes a page of comment trees in a single transaction and
// returns its id, replies point to their parent with parent_id.
func (s Store) SaveCommentPage(ctx context.Context, page scrape.Page[vnexpress.Comment]) (int64, error) {
	return savePage(ctx, s, db.PAGE_KIND_COMMENTS, page, func(txqry *db.Queries, pageID int64) error {
		return saveComments(ctx, txqry, pageID, sql.NullInt64{}, page.Elements)
	})
}

func saveComments(ctx context.Context, txqry *db.Queries, pageID int64, parent sql.NullInt64, comments []vnexpress.Comment) error {
	for i, comment := range comments {
		id, err := txqry.CreateComment(ctx, db.CreateCommentParams{
			PageID:    pageID,
			ParentID:  parent,
			Position:  int64(i),
			User:      comment.User,
			Message:   comment.Message,
			Timestamp: comment.Timestamp,
		})
		if err != nil {
			return err
		}
		err = saveComments(ctx, txqry, pageID, sql.NullInt64{Int64: id, Valid: true}, comment.Replies)
		if err != nil {
			return err
		}
	}
	return nil
}

func pageOf[T any](row db.Page, elements []T) scrape.Page[T] {
	return scrape.Page[T]{
		Count:    int(row.Count),
		Sequence: row.Sequence,
		URL:      row.Url,
		Scraped:  time.Unix(0, row.Scraped).UTC(),
		Elements: elements,
	}
}

func (s Store) loadPage(ctx context.Context, pageID int64, kind db.PageKind) (db.Page, error) {
	row, err := s.qry.GetPage(ctx, pageID)
	if err != nil {
		return db.Page{}, fmt.Errorf("page %d: %w", pageID, err)
	}
	if row.Kind != kind {
		return db.Page{}, fmt.Errorf("page %d holds %s, not %s", pageID, row.Kind, kind)
	}
	return row, nil
}

func (s Store) LoadPostPage(ctx context.Context, pageID int64) (scrape.Page[facebook.Post], error) {
	row, err := s.loadPage(ctx, pageID, db.PAGE_KIND_POSTS)
	if err != nil {
		return scrape.Page[facebook.Post]{}, err
	}
	rows, err := s.qry.ListPosts(ctx, pageID)
	if err != nil {
		return scrape.Page[facebook.Post]{}, err
	}
	posts := make([]facebook.Post, len(rows))
	for i, r := range rows {
		posts[i] = facebook.Post{
			Text:    r.Text,
			Time:    r.Time,
			Likes:   r.Likes,
			Replies: []facebook.Reply{},
		}
	}
	return pageOf(row, posts), nil
}

// LoadCommentTree rebuilds the comment trees of a page.
func (s Store) LoadCommentTree(ctx context.Context, pageID int64) (scrape.Page[vnexpress.Comment], error) {
	row, err := s.loadPage(ctx, pageID, db.PAGE_KIND_COMMENTS)
	if err != nil {
		return scrape.Page[vnexpress.Comment]{}, err
	}
	rows, err := s.qry.ListComments(ctx, pageID)
	if err != nil {
		return scrape.Page[vnexpress.Comment]{}, err
	}
	return pageOf(row, buildTree(rows)), nil
}

// buildTree assembles rows into trees ordered by position, parents may come
// after their children in rows.
func buildTree(rows []db.Comment) []vnexpress.Comment {
	children := map[int64][]db.Comment{}
	var roots []db.Comment
	for _, r := range rows {
		if r.ParentID.Valid {
			children[r.ParentID.Int64] = append(children[r.ParentID.Int64], r)
			continue
		}
		roots = append(roots, r)
	}

	var build func(level []db.Comment) []vnexpress.Comment
	build = func(level []db.Comment) []vnexpress.Comment {
		sortByPosition(level)
		out := make([]vnexpress.Comment, len(level))
		for i, r := range level {
			out[i] = vnexpress.Comment{
				User:      r.User,
				Message:   r.Message,
				Timestamp: r.Timestamp,
				Replies:   build(children[r.ID]),
			}
		}
		return out
	}
	return build(roots)
}

func sortByPosition(level []db.Comment) {
	slices.SortFunc(level, func(a, b db.Comment) int {
		return cmp.Compare(a.Position, b.Position)
	})
}

// Pages lists the pages saved by this run.
func (s Store) Pages(ctx context.Context) ([]db.Page, error) {
	return s.qry.ListPages(ctx, s.runID)
}

// PostSink saves every page it receives with SavePostPage.
func (s Store) PostSink() scrape.Sink[facebook.Post] {
	return scrape.SinkFunc[facebook.Post](func(ctx context.Context, page scrape.Page[facebook.Post]) error {
		_, err := s.SavePostPage(ctx, page)
		return err
	})
}

// CommentSink saves every page it receives with SaveCommentPage.
func (s Store) CommentSink() scrape.Sink[vnexpress.Comment] {
	return scrape.SinkFunc[vnexpress.Comment](func(ctx context.Context, page scrape.Page[vnexpress.Comment]) error {
		_, err := s.SaveCommentPage(ctx, page)
		return err
	})
}
