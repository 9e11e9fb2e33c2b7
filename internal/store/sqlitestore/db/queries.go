package db

import (
	"context"
	"database/sql"
)

type Run struct {
	ID      string
	Started int64
}

type Page struct {
	ID       int64
	RunID    string
	Kind     PageKind
	Sequence int64
	Url      string
	Count    int64
	Scraped  int64
}

type Post struct {
	ID       int64
	PageID   int64
	Position int64
	Text     string
	Time     string
	Likes    string
}

type Comment struct {
	ID        int64
	PageID    int64
	ParentID  sql.NullInt64
	Position  int64
	User      string
	Message   string
	Timestamp string
}

const createRun = `insert into run (id, started) values (?, ?)`

func (q *Queries) CreateRun(ctx context.Context, arg Run) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.Started)
	return err
}

const createPage = `insert into page (run_id, kind, sequence, url, count, scraped)
values (?, ?, ?, ?, ?, ?)
returning id`

type CreatePageParams struct {
	RunID    string
	Kind     PageKind
	Sequence int64
	Url      string
	Count    int64
	Scraped  int64
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.RunID,
		arg.Kind,
		arg.Sequence,
		arg.Url,
		arg.Count,
		arg.Scraped,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getPage = `select id, run_id, kind, sequence, url, count, scraped from page where id = ?`

func (q *Queries) GetPage(ctx context.Context, id int64) (Page, error) {
	row := q.db.QueryRowContext(ctx, getPage, id)
	var i Page
	err := row.Scan(
		&i.ID,
		&i.RunID,
		&i.Kind,
		&i.Sequence,
		&i.Url,
		&i.Count,
		&i.Scraped,
	)
	return i, err
}

const listPages = `select id, run_id, kind, sequence, url, count, scraped from page
where run_id = ?
order by sequence asc`

func (q *Queries) ListPages(ctx context.Context, runID string) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, listPages, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Page
	for rows.Next() {
		var i Page
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.Kind,
			&i.Sequence,
			&i.Url,
			&i.Count,
			&i.Scraped,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPost = `insert into post (page_id, position, text, time, likes) values (?, ?, ?, ?, ?)`

type CreatePostParams struct {
	PageID   int64
	Position int64
	Text     string
	Time     string
	Likes    string
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) error {
	_, err := q.db.ExecContext(ctx, createPost,
		arg.PageID,
		arg.Position,
		arg.Text,
		arg.Time,
		arg.Likes,
	)
	return err
}

const listPosts = `select id, page_id, position, text, time, likes from post
where page_id = ?
order by position asc`

func (q *Queries) ListPosts(ctx context.Context, pageID int64) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listPosts, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Post
	for rows.Next() {
		var i Post
		if err := rows.Scan(
			&i.ID,
			&i.PageID,
			&i.Position,
			&i.Text,
			&i.Time,
			&i.Likes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createComment = `insert into comment (page_id, parent_id, position, user, message, timestamp)
values (?, ?, ?, ?, ?, ?)
returning id`

type CreateCommentParams struct {
	PageID    int64
	ParentID  sql.NullInt64
	Position  int64
	User      string
	Message   string
	Timestamp string
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.PageID,
		arg.ParentID,
		arg.Position,
		arg.User,
		arg.Message,
		arg.Timestamp,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listComments = `select id, page_id, parent_id, position, user, message, timestamp from comment
where page_id = ?
order by parent_id asc nulls first, position asc`

func (q *Queries) ListComments(ctx context.Context, pageID int64) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listComments, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Comment
	for rows.Next() {
		var i Comment
		if err := rows.Scan(
			&i.ID,
			&i.PageID,
			&i.ParentID,
			&i.Position,
			&i.User,
			&i.Message,
			&i.Timestamp,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
