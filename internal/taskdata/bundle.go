package taskdata

import "github.com/lightflow-io/lightflow/internal/lferrors"

// Bundle manages multiple named Datasets flowing between tasks. It
// accommodates fan-in (a task with several predecessors, each contributing
// its own dataset) by indexing datasets and letting the caller address them
// either by position, by alias (usually the producing task's name, or a
// slot label assigned by the DAG schema), or through a single "default"
// dataset used whenever no explicit address is given.
type Bundle struct {
	datasets     []*Dataset
	aliases      map[string]int
	defaultIndex int
}

// NewBundle creates a bundle with no datasets.
func NewBundle() *Bundle {
	return &Bundle{aliases: make(map[string]int)}
}

// NewBundleWithDataset creates a bundle containing a single dataset,
// registered under the given aliases (if any) as well as being the default.
func NewBundleWithDataset(dataset *Dataset, aliases ...string) *Bundle {
	b := NewBundle()
	b.datasets = append(b.datasets, dataset)
	for _, a := range aliases {
		b.aliases[a] = 0
	}
	b.defaultIndex = 0
	return b
}

// DefaultIndex returns the index of the default dataset.
func (b *Bundle) DefaultIndex() int {
	return b.defaultIndex
}

// DefaultDataset returns the default dataset, or nil if the bundle holds no
// dataset at the default index (an empty bundle).
func (b *Bundle) DefaultDataset() *Dataset {
	ds, _ := b.ByIndex(b.defaultIndex)
	return ds
}

// AddDataset appends a new dataset to the bundle under the given task name
// (always registered as an alias) and any additional aliases. The first
// dataset added becomes the default.
func (b *Bundle) AddDataset(taskName string, dataset *Dataset, aliases ...string) {
	if dataset == nil {
		dataset = NewDataset()
	}
	b.datasets = append(b.datasets, dataset)
	idx := len(b.datasets) - 1
	b.aliases[taskName] = idx
	for _, a := range aliases {
		if a != "" {
			b.aliases[a] = idx
		}
	}
	if len(b.datasets) == 1 {
		b.defaultIndex = 0
	}
}

// AddAlias registers alias as pointing at the dataset with the given index.
func (b *Bundle) AddAlias(alias string, index int) error {
	if index < 0 || index >= len(b.datasets) {
		return lferrors.ErrDataInvalidIndex
	}
	b.aliases[alias] = index
	return nil
}

// ByIndex returns the dataset at the given index.
func (b *Bundle) ByIndex(index int) (*Dataset, error) {
	if index < 0 || index >= len(b.datasets) {
		return nil, lferrors.ErrDataInvalidIndex
	}
	return b.datasets[index], nil
}

// ByAlias returns the dataset registered under alias.
func (b *Bundle) ByAlias(alias string) (*Dataset, error) {
	idx, ok := b.aliases[alias]
	if !ok {
		return nil, lferrors.ErrDataInvalidAlias
	}
	return b.ByIndex(idx)
}

// SetDefaultByAlias makes the dataset registered under alias the default.
func (b *Bundle) SetDefaultByAlias(alias string) error {
	idx, ok := b.aliases[alias]
	if !ok {
		return lferrors.ErrDataInvalidAlias
	}
	b.defaultIndex = idx
	return nil
}

// SetDefaultByIndex makes the dataset at index the default.
func (b *Bundle) SetDefaultByIndex(index int) error {
	if index < 0 || index >= len(b.datasets) {
		return lferrors.ErrDataInvalidIndex
	}
	b.defaultIndex = index
	return nil
}

// Datasets returns the bundle's datasets in index order.
func (b *Bundle) Datasets() []*Dataset {
	return b.datasets
}

// AddTaskHistory appends taskName to the history of every dataset in the
// bundle.
func (b *Bundle) AddTaskHistory(taskName string) {
	for _, ds := range b.datasets {
		ds.AddHistory(taskName)
	}
}

// Flatten collapses every dataset into a single one. Non-default datasets
// are merged first, in index order, and the default dataset is merged last
// so that it wins any key conflict — merge is associative but not
// commutative, and the default always takes precedence. All existing
// aliases are preserved, now all pointing at the single resulting dataset.
//
// If inPlace is true the bundle's own datasets are replaced and nil is
// returned; otherwise a new, flattened Bundle is returned and the receiver
// is left untouched.
func (b *Bundle) Flatten(inPlace bool) *Bundle {
	merged := NewDataset()
	for i, ds := range b.datasets {
		if i != b.defaultIndex {
			merged.Merge(ds)
		}
	}
	if def := b.DefaultDataset(); def != nil {
		merged.Merge(def)
	}

	newAliases := make(map[string]int, len(b.aliases))
	for alias := range b.aliases {
		newAliases[alias] = 0
	}

	if inPlace {
		b.datasets = []*Dataset{merged}
		b.aliases = newAliases
		b.defaultIndex = 0
		return nil
	}

	flat := &Bundle{
		datasets:     []*Dataset{merged},
		aliases:      newAliases,
		defaultIndex: 0,
	}
	return flat
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	clone := &Bundle{
		aliases:      make(map[string]int, len(b.aliases)),
		defaultIndex: b.defaultIndex,
	}
	for _, ds := range b.datasets {
		clone.datasets = append(clone.datasets, ds.Clone())
	}
	for k, v := range b.aliases {
		clone.aliases[k] = v
	}
	return clone
}
