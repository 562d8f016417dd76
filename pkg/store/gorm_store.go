package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moviedb/pkg/domain"
	"moviedb/pkg/query"
)

const tlsConfigName = "moviedb"

// MySQLConfig holds connection parameters for the movie database.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// SSLCA is an optional path to a PEM CA bundle; when set the connection uses TLS.
	SSLCA string
}

// DSN renders the go-sql-driver DSN, registering a TLS config when SSLCA is set.
func (c MySQLConfig) DSN() (string, error) {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port <= 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	if ca := strings.TrimSpace(c.SSLCA); ca != "" {
		if err := registerCA(ca, host); err != nil {
			return "", err
		}
		cfg.TLSConfig = tlsConfigName
	}
	return cfg.FormatDSN(), nil
}

func registerCA(path, serverName string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read mysql ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return errors.New("mysql ca: no certificates found")
	}
	if err := mysql.RegisterTLSConfig(tlsConfigName, &tls.Config{
		RootCAs:    pool,
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}); err != nil {
		return fmt.Errorf("register mysql tls: %w", err)
	}
	return nil
}

// GormStore implements Store using GORM + MySQL. Every call runs on its own
// connection, which is closed when the call returns.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore prepares the connection pool without dialing; an unreachable
// database surfaces as ErrConnection on the first call.
func NewGormStore(cfg MySQLConfig) (*GormStore, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	s, err := openGorm(mysqldriver.New(mysqldriver.Config{
		DSN:                       dsn,
		SkipInitializeWithVersion: true,
	}))
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, classify("open db", err)
	}
	// Released connections are closed rather than parked.
	sqlDB.SetMaxIdleConns(0)
	return s, nil
}

// NewGormStoreFromDB wraps an existing *sql.DB speaking the MySQL protocol.
// Pool settings stay with the caller.
func NewGormStoreFromDB(sqlDB *sql.DB) (*GormStore, error) {
	return openGorm(mysqldriver.New(mysqldriver.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}))
}

func openGorm(dialector gorm.Dialector) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLog,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, classify("open db", err)
	}
	return &GormStore{db: db}, nil
}

// withConn runs fn on a dedicated connection and always releases it.
func (s *GormStore) withConn(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Connection(fn)
}

// Execute runs a raw statement. SELECTs return their rows; anything else is
// executed in a transaction and committed.
func (s *GormStore) Execute(ctx context.Context, sqlText string, args ...any) (Result, error) {
	var res Result
	err := s.withConn(ctx, func(tx *gorm.DB) error {
		if isSelect(sqlText) {
			rows, err := tx.Raw(sqlText, args...).Rows()
			if err != nil {
				return err
			}
			defer rows.Close()
			res.Rows, err = scanRows(rows)
			return err
		}
		return tx.Transaction(func(t *gorm.DB) error {
			out := t.Exec(sqlText, args...)
			if out.Error != nil {
				return out.Error
			}
			res.RowsAffected = out.RowsAffected
			return nil
		})
	})
	if err != nil {
		return Result{}, classify("execute", err)
	}
	if !isSelect(sqlText) {
		res.Committed = true
	}
	return res, nil
}

// TableRows returns every row of a known table.
func (s *GormStore) TableRows(ctx context.Context, table query.Table) ([]Row, error) {
	stmt, err := query.AllRows(table)
	if err != nil {
		return nil, fmt.Errorf("table rows: %w: %w", ErrQuery, err)
	}
	res, err := s.Execute(ctx, stmt.SQL)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// SearchMovies runs the statement built for c.
func (s *GormStore) SearchMovies(ctx context.Context, c query.Criteria) ([]domain.Movie, error) {
	stmt, err := c.Statement()
	if err != nil {
		return nil, fmt.Errorf("search movies: %w: %w", ErrQuery, err)
	}
	var models []MovieModel
	if err := s.scan(ctx, stmt, &models); err != nil {
		return nil, classify("search movies", err)
	}
	return convertAll(models, movieFromModel), nil
}

// ListMovies returns all movies.
func (s *GormStore) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	var models []MovieModel
	if err := s.list(ctx, query.TableMovie, &models); err != nil {
		return nil, classify("list movies", err)
	}
	return convertAll(models, movieFromModel), nil
}

// ListActors returns all actors.
func (s *GormStore) ListActors(ctx context.Context) ([]domain.Actor, error) {
	var models []ActorModel
	if err := s.list(ctx, query.TableActor, &models); err != nil {
		return nil, classify("list actors", err)
	}
	return convertAll(models, actorFromModel), nil
}

// ListDirectors returns all directors.
func (s *GormStore) ListDirectors(ctx context.Context) ([]domain.Director, error) {
	var models []DirectorModel
	if err := s.list(ctx, query.TableDirector, &models); err != nil {
		return nil, classify("list directors", err)
	}
	return convertAll(models, directorFromModel), nil
}

// ListGenres returns all genres.
func (s *GormStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	var models []GenreModel
	if err := s.list(ctx, query.TableGenre, &models); err != nil {
		return nil, classify("list genres", err)
	}
	return convertAll(models, genreFromModel), nil
}

// GetMovie looks up a movie by ID.
func (s *GormStore) GetMovie(ctx context.Context, id int) (domain.Movie, bool, error) {
	var models []MovieModel
	if err := s.scan(ctx, query.MovieByID(id), &models); err != nil {
		return domain.Movie{}, false, classify("get movie", err)
	}
	if len(models) == 0 {
		return domain.Movie{}, false, nil
	}
	return movieFromModel(models[0]), true, nil
}

// MovieReviews returns reviews joined to their users.
func (s *GormStore) MovieReviews(ctx context.Context, movieID int) ([]domain.MovieReview, error) {
	var models []MovieReviewModel
	if err := s.scan(ctx, query.ReviewsForMovie(movieID), &models); err != nil {
		return nil, classify("movie reviews", err)
	}
	return convertAll(models, reviewFromModel), nil
}

// MovieCast returns the movie's actors.
func (s *GormStore) MovieCast(ctx context.Context, movieID int) ([]domain.Actor, error) {
	var models []ActorModel
	if err := s.scan(ctx, query.CastForMovie(movieID), &models); err != nil {
		return nil, classify("movie cast", err)
	}
	return convertAll(models, actorFromModel), nil
}

// MovieDirectors returns the movie's directors.
func (s *GormStore) MovieDirectors(ctx context.Context, movieID int) ([]domain.Director, error) {
	var models []DirectorModel
	if err := s.scan(ctx, query.DirectorsForMovie(movieID), &models); err != nil {
		return nil, classify("movie directors", err)
	}
	return convertAll(models, directorFromModel), nil
}

// MovieGenres returns the movie's genres.
func (s *GormStore) MovieGenres(ctx context.Context, movieID int) ([]domain.Genre, error) {
	var models []GenreModel
	if err := s.scan(ctx, query.GenresForMovie(movieID), &models); err != nil {
		return nil, classify("movie genres", err)
	}
	return convertAll(models, genreFromModel), nil
}

// Ping checks the database is reachable.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classify("ping", err)
	}
	return classify("ping", sqlDB.PingContext(ctx))
}

// Close releases the underlying pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) scan(ctx context.Context, stmt query.Statement, dest any) error {
	return s.withConn(ctx, func(tx *gorm.DB) error {
		return tx.Raw(stmt.SQL, stmt.Args...).Scan(dest).Error
	})
}

func (s *GormStore) list(ctx context.Context, table query.Table, dest any) error {
	stmt, err := query.AllRows(table)
	if err != nil {
		return err
	}
	return s.scan(ctx, stmt, dest)
}

func isSelect(sqlText string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlText)), "SELECT")
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
