package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

func (s *SQLStore) CreateUser(ctx context.Context, u User) (User, error) {
	var problems []string
	if u.Name == "" {
		problems = append(problems, "name is required")
	}
	if u.Email == "" && u.Role != RoleStudent {
		problems = append(problems, "email is required")
	}
	switch u.Role {
	case RoleTutor, RoleStudent, RoleAdmin:
	default:
		problems = append(problems, "role must be tutor, student or admin")
	}
	if len(problems) > 0 {
		return User{}, &ValidationError{Problems: problems}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id,name,email,role,student_id,password_hash,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Name, u.Email, string(u.Role), u.StudentID, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE email=$1`, email)
	return scanUser(row)
}

func (s *SQLStore) GetUserByStudentID(ctx context.Context, studentID string) (User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE student_id=$1 AND role=$2`, studentID, string(RoleStudent))
	return scanUser(row)
}

// EnsureStudent matches an existing student by studentID or creates an ad hoc
// one. Student identities carry no password.
func (s *SQLStore) EnsureStudent(ctx context.Context, name, email, studentID string) (User, error) {
	if studentID == "" {
		return User{}, &ValidationError{Problems: []string{"student_id is required"}}
	}
	u, err := s.GetUserByStudentID(ctx, studentID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	return s.CreateUser(ctx, User{
		Name:      name,
		Email:     email,
		Role:      RoleStudent,
		StudentID: studentID,
	})
}

func (s *SQLStore) ListUsers(ctx context.Context, role Role) ([]User, error) {
	var rows *sql.Rows
	var err error
	if role == "" {
		rows, err = s.db.QueryContext(ctx, selectUser+` ORDER BY name, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, selectUser+` WHERE role=$1 ORDER BY name, id`, string(role))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpsertStudents bulk-loads a tutor-managed roster. Rows are matched by
// student id; existing rows get name/email refreshed.
func (s *SQLStore) UpsertStudents(ctx context.Context, rows []User) (inserted, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := s.now().Unix()
	for _, r := range rows {
		if r.StudentID == "" || r.Name == "" {
			return inserted, updated, &ValidationError{Problems: []string{"student_id and name are required for every row"}}
		}
		var existingID string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE student_id=$1 AND role=$2`, r.StudentID, string(RoleStudent)).
			Scan(&existingID)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, `UPDATE users SET name=$1, email=$2 WHERE id=$3`,
				r.Name, r.Email, existingID)
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id,name,email,role,student_id,password_hash,created_at) VALUES ($1,$2,$3,$4,$5,'',$6)`,
				uuid.NewString(), r.Name, r.Email, string(RoleStudent), r.StudentID, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, err
		}
	}
	return inserted, updated, nil
}

const selectUser = `SELECT id, name, email, role, student_id, password_hash, created_at FROM users`

func scanUser(row rowScanner) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.StudentID, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}
