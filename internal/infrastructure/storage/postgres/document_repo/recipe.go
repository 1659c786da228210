package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/domain/recipes"
	"craftflow/internal/infrastructure/storage/postgres"
)

const (
	recipesTable          = "doc_recipes"
	recipeComponentsTable = "doc_recipe_components"
)

var _ recipes.Repository = (*RecipeRepo)(nil)

// RecipeRepo implements recipes.Repository.
type RecipeRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	recipeCols []string
	compCols   []string
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txManager *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		recipeCols: postgres.ExtractDBColumns[recipes.Recipe](),
		compCols:   postgres.ExtractDBColumns[recipes.Component](),
	}
}

func (r *RecipeRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts the recipe header and its components.
func (r *RecipeRepo) Create(ctx context.Context, recipe *recipes.Recipe) error {
	data := postgres.StructToMap(recipe)
	filtered := make(map[string]any, len(r.recipeCols))
	for _, col := range r.recipeCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder.
		Insert(recipesTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	q := r.builder.Insert(recipeComponentsTable).Columns(r.compCols...)
	for _, comp := range recipe.Components {
		compData := postgres.StructToMap(comp)
		row := make([]any, len(r.compCols))
		for i, col := range r.compCols {
			row[i] = compData[col]
		}
		q = q.Values(row...)
	}
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build components insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe components: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe with its components.
func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipes.Recipe, error) {
	sql, args, err := r.builder.
		Select(r.recipeCols...).
		From(recipesTable).
		Where(squirrel.Eq{"id": recipeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	recipe := &recipes.Recipe{}
	if err := pgxscan.Get(ctx, r.querier(ctx), recipe, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe", recipeID.String())
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if err := r.loadComponents(ctx, []*recipes.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetActiveByProduct returns the product's current recipe.
func (r *RecipeRepo) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipes.Recipe, error) {
	sql, args, err := r.builder.
		Select(r.recipeCols...).
		From(recipesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	recipe := &recipes.Recipe{}
	if err := pgxscan.Get(ctx, r.querier(ctx), recipe, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe", productID.String())
		}
		return nil, fmt.Errorf("get active recipe: %w", err)
	}

	if err := r.loadComponents(ctx, []*recipes.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

// SetDeletionMark soft-deletes or restores a recipe.
func (r *RecipeRepo) SetDeletionMark(ctx context.Context, recipeID id.ID, mark bool) error {
	sql, args, err := r.builder.
		Update(recipesTable).
		Set("deletion_mark", mark).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": recipeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("recipe", recipeID.String())
	}
	return nil
}

// ListByProducts returns the active recipe per product in one pass.
func (r *RecipeRepo) ListByProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]*recipes.Recipe, error) {
	if len(productIDs) == 0 {
		return map[id.ID]*recipes.Recipe{}, nil
	}

	sql, args, err := r.builder.
		Select(r.recipeCols...).
		From(recipesTable).
		Where(squirrel.Eq{"product_id": productIDs}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*recipes.Recipe
	if err := pgxscan.Select(ctx, r.querier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if err := r.loadComponents(ctx, list); err != nil {
		return nil, err
	}

	// Later creation wins when a product somehow has several active rows.
	result := make(map[id.ID]*recipes.Recipe, len(list))
	for _, recipe := range list {
		result[recipe.ProductID] = recipe
	}
	return result, nil
}

func (r *RecipeRepo) loadComponents(ctx context.Context, list []*recipes.Recipe) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]id.ID, len(list))
	byID := make(map[id.ID]*recipes.Recipe, len(list))
	for i, recipe := range list {
		ids[i] = recipe.ID
		byID[recipe.ID] = recipe
	}

	sql, args, err := r.builder.
		Select(r.compCols...).
		From(recipeComponentsTable).
		Where(squirrel.Eq{"recipe_id": ids}).
		OrderBy("line_id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var comps []recipes.Component
	if err := pgxscan.Select(ctx, r.querier(ctx), &comps, sql, args...); err != nil {
		return fmt.Errorf("load components: %w", err)
	}
	for _, comp := range comps {
		if recipe, ok := byID[comp.RecipeID]; ok {
			recipe.Components = append(recipe.Components, comp)
		}
	}
	return nil
}
