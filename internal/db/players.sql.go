package db

import (
	"context"
)

const insertPlayer = `
INSERT INTO players (rsn, team, build)
VALUES (?, ?, ?)
ON CONFLICT(rsn) DO NOTHING
`

type InsertPlayerParams struct {
	Rsn   string
	Team  string
	Build string
}

// InsertPlayer reports whether a new row was written; known players keep
// their original team.
func (q *Queries) InsertPlayer(ctx context.Context, arg InsertPlayerParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertPlayer, arg.Rsn, arg.Team, arg.Build)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listPlayers = `
SELECT id, rsn, team, build, created_date, modified_date
FROM players
ORDER BY team, rsn
`

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.ID,
			&i.Rsn,
			&i.Team,
			&i.Build,
			&i.CreatedDate,
			&i.ModifiedDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
