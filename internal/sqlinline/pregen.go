package sqlinline

const QCreatePregenTable = `--sql 0c6f2f7e-5b1d-4c8e-9a43-2e7d9b1f6a10
create table if not exists pregenerated_cars (
    id text primary key,
    payload jsonb not null,
    created_at timestamptz not null default now()
);
`

const QInsertPregen = `--sql 7b3e9d21-46a8-4f0c-b5e2-91c4d8a7f356
insert into pregenerated_cars (id, payload)
values ($1::text, $2::jsonb);
`

// QClaimPregen removes and returns the oldest entry. SKIP LOCKED lets concurrent
// callers claim different rows instead of blocking on the same one.
const QClaimPregen = `--sql d4a18c5f-2b7e-4e91-8f36-5c0b7e9a2d48
delete from pregenerated_cars
where id = (
    select id
    from pregenerated_cars
    order by id asc
    for update skip locked
    limit 1
)
returning id, payload::text;
`

const QCountPregen = `--sql 3e8b5a72-c1d4-4f69-a0b7-6d2e9f1c8b54
select count(*)
from pregenerated_cars;
`

const QCreatePregenTableSQLite = `--sql 91f0c4b8-7a2d-4e35-b6c1-8d5e3a7f0b29
create table if not exists pregenerated_cars (
    id text primary key,
    payload text not null,
    created_at text not null default (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
`

const QInsertPregenSQLite = `--sql 5a2d7e19-3c8b-4f06-9e41-b7a0c6d8e3f2
insert into pregenerated_cars (id, payload)
values (?, ?);
`

// QClaimPregenSQLite relies on SQLite serialising writers: the single
// statement selects and deletes under one write lock.
const QClaimPregenSQLite = `--sql e6c3b0a4-8d1f-4a72-95be-0f4a2c7d1e68
delete from pregenerated_cars
where id = (
    select id
    from pregenerated_cars
    order by id asc
    limit 1
)
returning id, payload;
`

const QCountPregenSQLite = `--sql 2b9f6d3e-0a7c-4b58-8e12-a4c7f5d0b391
select count(*)
from pregenerated_cars;
`
