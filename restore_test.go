package mdbdump_test

import (
	"bytes"
	"strings"

	"github.com/bsm/mdbdump"
	"github.com/bsm/mdbdump/kvenv"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Dump", func() {
	It("should reject unknown sources", func() {
		err := mdbdump.Dump(new(bytes.Buffer), "not a store", nil)
		Expect(err).To(BeAssignableToTypeOf(&mdbdump.UsageError{}))
		Expect(err).To(MatchError("mdbdump: unknown source type string"))

		_, err = mdbdump.DumpBytes(nil, nil)
		Expect(err).To(BeAssignableToTypeOf(&mdbdump.UsageError{}))
	})

	It("should dump environments", func() {
		env := seedEnv("a", "b")
		defer env.Close()

		dump, err := mdbdump.DumpBytes(env, &mdbdump.DumpOptions{Stores: []string{"a", "b"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.Count(dump, []byte("VERSION=3\n"))).To(Equal(2))
		Expect(bytes.Count(dump, []byte("DATA=END\n"))).To(Equal(2))

		names, _ := readSections(dump)
		Expect(names).To(Equal([]string{"a", "b"}))
	})

	It("should dump single stores, ignoring selectors", func() {
		env := seedEnv("a")
		defer env.Close()

		s, err := env.TryOpen("a")
		Expect(err).NotTo(HaveOccurred())

		dump, err := mdbdump.DumpBytes(s, &mdbdump.DumpOptions{All: true, Stores: []string{"x"}, Format: mdbdump.FormatPrint})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dump)).To(HavePrefix("VERSION=3\nformat=print\ntype=btree\n"))
		Expect(string(dump)).To(ContainSubstring("\n key\n value-a\n"))
	})

	It("should find named stores", func() {
		env := seedEnv()
		defer env.Close()
		Expect(mdbdump.FindStores(env)).To(BeNil())

		_, err := env.OpenStore("sub1", 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = env.OpenStore("sub2", mdbdump.DupSort)
		Expect(err).NotTo(HaveOccurred())
		Expect(mdbdump.FindStores(env)).To(Equal([]string{"sub1", "sub2"}))
	})
})

var _ = Describe("Restore", func() {
	var dump []byte

	BeforeEach(func() {
		src := seedEnv("a", "b")
		defer src.Close()

		var err error
		dump, err = mdbdump.DumpBytes(src, &mdbdump.DumpOptions{All: true})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should restore into new environments", func() {
		env, err := mdbdump.RestoreNew(bytes.NewReader(dump), kvenv.Opener(kvenv.Memory, ""), nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(env).NotTo(BeNil())

		Expect(mdbdump.FindStores(env)).To(Equal([]string{"a", "b"}))
		for _, name := range []string{"a", "b"} {
			s, err := env.TryOpen(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(storeData(s)).To(Equal(map[string]string{"store": name, "key": "value-" + name}))
		}
		Expect(env.(*kvenv.Env).Close()).To(Succeed())
	})

	It("should merge environment options", func() {
		dump := strings.Replace(string(dump), "mapsize=1048576\n", "mapsize=2097152\n", 1)

		env, err := mdbdump.RestoreNew(strings.NewReader(dump), kvenv.Opener(kvenv.Memory, ""), &mdbdump.EnvOptions{MaxReaders: 8}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer env.(*kvenv.Env).Close()

		info, err := env.Info()
		Expect(err).NotTo(HaveOccurred())
		Expect(info).To(Equal(mdbdump.EnvInfo{MapSize: 2097152, MaxReaders: 8}))
	})

	It("should not create environments for empty dumps", func() {
		env, err := mdbdump.RestoreNew(strings.NewReader(""), func(mdbdump.EnvOptions) (mdbdump.Environment, error) {
			Fail("unexpected call")
			return nil, nil
		}, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(env).To(BeNil())
	})

	It("should restore the root store", func() {
		src := seedEnv()
		defer src.Close()

		for _, f := range []mdbdump.Format{mdbdump.FormatByteValue, mdbdump.FormatPrint} {
			dump, err := mdbdump.DumpBytes(src, &mdbdump.DumpOptions{Format: f})
			Expect(err).NotTo(HaveOccurred())

			env, err := kvenv.OpenMemory(nil)
			Expect(err).NotTo(HaveOccurred())
			defer env.Close()

			Expect(mdbdump.Restore(bytes.NewReader(dump), env, nil)).To(Succeed())
			root, err := env.Root()
			Expect(err).NotTo(HaveOccurred())
			Expect(storeData(root)).To(Equal(sourceData), "format %s", f)
		}
	})

	It("should restore store flags", func() {
		src, err := kvenv.OpenMemory(nil)
		Expect(err).NotTo(HaveOccurred())
		defer src.Close()
		_, err = src.OpenStore("dups", mdbdump.DupSort|mdbdump.IntegerDup)
		Expect(err).NotTo(HaveOccurred())

		dump, err := mdbdump.DumpBytes(src, &mdbdump.DumpOptions{All: true})
		Expect(err).NotTo(HaveOccurred())

		env, err := kvenv.OpenMemory(nil)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()
		Expect(mdbdump.Restore(bytes.NewReader(dump), env, nil)).To(Succeed())

		s, err := env.TryOpen("dups")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Flags()).To(Equal(mdbdump.DupSort | mdbdump.IntegerDup))
	})

	It("should leave unrelated stores untouched", func() {
		env := seedEnv("c")
		defer env.Close()
		root, err := env.Root()
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Put([]byte("plain"), []byte("entry"))).To(Succeed())

		Expect(mdbdump.Restore(bytes.NewReader(dump), env, nil)).To(Succeed())
		Expect(mdbdump.FindStores(env)).To(Equal([]string{"a", "b", "c"}))

		c, err := env.TryOpen("c")
		Expect(err).NotTo(HaveOccurred())
		Expect(storeData(c)).To(Equal(map[string]string{"store": "c", "key": "value-c"}))
		Expect(storeData(root)).To(HaveKeyWithValue("plain", "entry"))
	})

	It("should restore root dumps into environments with named stores", func() {
		env := seedEnv("a")
		defer env.Close()
		root, err := env.Root()
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Put([]byte("plain"), []byte("x"))).To(Succeed())

		dump, err := mdbdump.DumpBytes(env, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dump)).To(ContainSubstring("\n 61\n 00\n"))

		Expect(mdbdump.Restore(bytes.NewReader(dump), env, nil)).To(Succeed())
		Expect(storeData(root)).To(Equal(map[string]string{"a": "\x00", "plain": "x"}))
		Expect(mdbdump.FindStores(env)).To(Equal([]string{"a"}))

		a, err := env.TryOpen("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(storeData(a)).To(Equal(map[string]string{"store": "a", "key": "value-a"}))
	})

	It("should clear target stores by default", func() {
		env := seedEnv("a")
		defer env.Close()
		a, err := env.TryOpen("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Put([]byte("preexisting"), []byte("data"))).To(Succeed())

		Expect(mdbdump.Restore(bytes.NewReader(dump), env, nil)).To(Succeed())
		Expect(storeData(a)).To(Equal(map[string]string{"store": "a", "key": "value-a"}))
	})

	It("should keep existing entries on request", func() {
		env := seedEnv("a")
		defer env.Close()
		a, err := env.TryOpen("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Put([]byte("preexisting"), []byte("data"))).To(Succeed())
		Expect(a.Put([]byte("key"), []byte("old"))).To(Succeed())

		Expect(mdbdump.Restore(bytes.NewReader(dump), env, &mdbdump.RestoreOptions{NoClear: true})).To(Succeed())
		Expect(storeData(a)).To(Equal(map[string]string{"store": "a", "key": "value-a", "preexisting": "data"}))
	})

	It("should fail on unknown formats", func() {
		dump := strings.Replace(string(dump), "format=bytevalue", "format=unknown", 1)
		env, err := kvenv.OpenMemory(nil)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()

		err = mdbdump.Restore(strings.NewReader(dump), env, nil)
		Expect(err).To(BeAssignableToTypeOf(&mdbdump.FormatError{}))
		Expect(err).To(MatchError(`mdbdump: unknown format "unknown"`))
	})

	It("should wrap store errors", func() {
		env, err := kvenv.OpenMemory(&kvenv.Options{MaxDBs: 1})
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()

		err = mdbdump.Restore(bytes.NewReader(dump), env, nil)
		Expect(err).To(MatchError(`mdbdump: open store "b": kvenv: environment maxdbs limit reached`))
		Expect(errors.Cause(err)).To(Equal(kvenv.ErrStoresFull))
	})

	It("should require an environment", func() {
		err := mdbdump.Restore(bytes.NewReader(dump), nil, nil)
		Expect(err).To(BeAssignableToTypeOf(&mdbdump.UsageError{}))
	})
})
