package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

type folderReply struct {
	FolderID int    `json:"folder_id"`
	Name     string `json:"name"`
	ParentID *int   `json:"parent_id"`
}

type fileReply struct {
	FileID   int    `json:"file_id"`
	Name     string `json:"name"`
	FolderID int    `json:"folder_id"`
}

// Execute performs the exchange of a session request.
func (c *Client) Execute(ctx context.Context, req session.Request) (session.Response, error) {
	switch req.Op {
	case session.OpAddFolder:
		r, err := c.submit(ctx, req.Path, req.Form, nil)
		if err != nil {
			return session.Response{}, err
		}
		var fr folderReply
		if err := decodeJSON(r, &fr); err != nil {
			return session.Response{}, err
		}
		parent := workspace.RootID
		if fr.ParentID != nil {
			parent = *fr.ParentID
		}
		return session.Response{Folder: &workspace.Folder{ID: fr.FolderID, Name: fr.Name, ParentID: parent}}, nil

	case session.OpDeleteFolder:
		r, err := c.submit(ctx, req.Path, req.Form, nil)
		if err != nil {
			return session.Response{}, err
		}
		var fr folderReply
		if err := decodeJSON(r, &fr); err != nil {
			return session.Response{}, err
		}
		// the cascade may take out any cached file
		c.docs.Purge()
		return session.Response{DeletedID: fr.FolderID}, nil

	case session.OpAddFile:
		r, err := c.submit(ctx, req.Path, req.Form, req.Upload)
		if err != nil {
			return session.Response{}, err
		}
		var fr fileReply
		if err := decodeJSON(r, &fr); err != nil {
			return session.Response{}, err
		}
		if fr.FolderID == 0 {
			fr.FolderID = req.FolderID
		}
		return session.Response{File: &workspace.File{ID: fr.FileID, Name: fr.Name, FolderID: fr.FolderID}}, nil

	case session.OpDeleteFile:
		r, err := c.submit(ctx, req.Path, req.Form, nil)
		if err != nil {
			return session.Response{}, err
		}
		var fr fileReply
		if err := decodeJSON(r, &fr); err != nil {
			return session.Response{}, err
		}
		c.docs.Remove(req.FileID)
		return session.Response{DeletedID: fr.FileID}, nil

	case session.OpOpenFile:
		if p, ok := c.docs.Get(req.FileID); ok {
			return pageResponse(p), nil
		}
		return c.fetchPage(ctx, req, func(ctx context.Context) (reply, error) { return c.get(ctx, req.Path) })

	case session.OpSplitFile, session.OpCreateSection:
		return c.fetchPage(ctx, req, func(ctx context.Context) (reply, error) { return c.get(ctx, req.Path) })

	case session.OpDeleteSection:
		// the confirmation answers with a redirect to the re-rendered file
		return c.fetchPage(ctx, req, func(ctx context.Context) (reply, error) {
			return c.submit(ctx, req.Path, req.Form, nil)
		})

	case session.OpCompile:
		r, err := c.postForm(ctx, req.Path, req.Form)
		if err != nil {
			return session.Response{}, err
		}
		res, err := decodeCompile(r, req.FileID, c.sourceName, req.FileName)
		if err != nil {
			return session.Response{}, err
		}
		c.log.Debug().Ctx(ctx).
			Str("status", string(res.Status)).
			Int("lines", len(res.Document.Lines)).
			Int("markers", len(res.Markers)).
			Msg("compile decoded")
		return session.Response{Compile: &res}, nil
	}

	return session.Response{}, fmt.Errorf("remote: unsupported operation %q", req.Op)
}

func (c *Client) fetchPage(ctx context.Context, req session.Request, fetch func(context.Context) (reply, error)) (session.Response, error) {
	r, err := fetch(ctx)
	if err != nil {
		return session.Response{}, err
	}
	p, err := decodeSource(req.FileID, r.body)
	if err != nil {
		return session.Response{}, err
	}
	p.Document.Name = req.FileName
	c.docs.Add(req.FileID, p)
	return pageResponse(p), nil
}

func pageResponse(p Page) session.Response {
	doc := p.Document
	return session.Response{Document: &doc, Sections: p.Sections}
}

func decodeJSON(r reply, v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
