/*
Package mdbdump reads and writes the portable text dump format of
mdb_dump/mdb_load for ordered key-value stores, modeled on LMDB.

Data Structure Documentation

Stream

A dump stream is a series of self-contained sections, one per store.
Any bytes before a VERSION line are skipped by readers.

    Stream layout:
    +-----------+---------+-----------+
    | section 1 |   ...   | section n |
    +-----------+---------+-----------+

Section

A section starts with a header, followed by alternating key and value
lines and a terminator.

    VERSION=3
    format=<print|bytevalue>
    database=<name>              ; omitted for the root store
    type=btree
    mapsize=<uint>
    mapaddr=<uint>               ; omitted when 0
    maxreaders=<uint>
    <flag>=1                     ; one per set store flag
    db_pagesize=<uint>
    HEADER=END
     <encoded key>
     <encoded value>
     ...
    DATA=END

Recognised store flags are reversekey, duplicates, integerkey, dupfixed,
integerdup and reversedup.

Entry Lines

Each entry line starts with a single space and ends with a newline.

In the bytevalue format every byte is written as two lowercase hex
digits:

    "A\tz" =>  " 41097a\n"

In the print format bytes in the printable ASCII range are written
as-is, backslashes are doubled and all other bytes are written as a
backslash followed by two lowercase hex digits:

    "A\tz" =>  " A\\09z\n"
    `a\b`  =>  " a\\\\b\n"
*/
package mdbdump
